package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/requestcontext"
)

// ServiceClaims are the claims carried by admin, issuer, and ledger tokens.
// For issuer tokens Subject is the issuer DID.
type ServiceClaims struct {
	Role string `json:"role"`
	Env  string `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// JWTService mints and validates HS256 service tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	env        string
}

func NewJWTService(signingKey, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// SetEnv annotates issued tokens with an environment string (e.g. "dev").
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// GenerateToken mints a token for role and subject valid for the configured TTL.
func (s *JWTService) GenerateToken(role requestcontext.ActorRole, subject string, now time.Time) (string, error) {
	switch role {
	case requestcontext.RoleAdmin, requestcontext.RoleIssuer, requestcontext.RoleLedger:
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+string(role))
	}
	if subject == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ServiceClaims{
		Role: string(role),
		Env:  s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns the caller it identifies.
func (s *JWTService) ValidateToken(tokenString string) (requestcontext.ActorInfo, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*ServiceClaims)
	if !ok || !parsed.Valid {
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	role := requestcontext.ActorRole(claims.Role)
	switch role {
	case requestcontext.RoleAdmin, requestcontext.RoleIssuer, requestcontext.RoleLedger:
	default:
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "unknown token role")
	}
	if claims.Subject == "" {
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "token subject missing")
	}
	return requestcontext.ActorInfo{Role: role, Subject: claims.Subject}, nil
}
