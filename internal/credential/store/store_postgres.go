package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/models"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/sentinel"
)

// PostgresStore persists credentials in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const credentialColumns = `id, type, issuer, subject, issued_at, expires_at, weight, signature, revoked_at, revocation_reason`

func (s *PostgresStore) Track(ctx context.Context, c *models.Credential) error {
	if c == nil {
		return fmt.Errorf("credential is required")
	}
	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var reason sql.NullString
	if c.RevocationReason != "" {
		reason = sql.NullString{String: c.RevocationReason, Valid: true}
	}
	var stored string
	err := s.db.QueryRowContext(ctx, query,
		string(c.ID),
		string(c.Type),
		string(c.Issuer),
		string(c.Subject),
		c.IssuedAt,
		c.ExpiresAt,
		c.Weight,
		c.Signature,
		c.RevokedAt,
		reason,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("track credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CredentialID) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`
	c, err := scanCredential(s.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return c, nil
}

// ListBySubject reads the subject's records in a single statement, so the
// result is one snapshot under READ COMMITTED.
func (s *PostgresStore) ListBySubject(ctx context.Context, subject domain.SubjectID) ([]*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE subject = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, string(subject))
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

// Revoke is a single conditional UPDATE; concurrent readers see either the
// prior row or the revoked row.
func (s *PostgresStore) Revoke(ctx context.Context, id domain.CredentialID, revokedAt time.Time, reason string) (*models.Credential, error) {
	query := `
		UPDATE credentials
		SET revoked_at = $2, revocation_reason = $3
		WHERE id = $1 AND revoked_at IS NULL
		RETURNING ` + credentialColumns
	c, err := scanCredential(s.db.QueryRowContext(ctx, query, string(id), revokedAt, reason))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revoke credential: %w", err)
	}
	existing, findErr := s.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return existing, sentinel.ErrInvalidState
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (models.Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE revoked_at IS NULL AND expires_at >= $1),
			COUNT(*) FILTER (WHERE revoked_at IS NULL AND expires_at < $1),
			COUNT(*) FILTER (WHERE revoked_at IS NOT NULL),
			COUNT(DISTINCT subject)
		FROM credentials
	`
	var st models.Stats
	err := s.db.QueryRowContext(ctx, query, now).Scan(
		&st.Total, &st.Active, &st.Expired, &st.Revoked, &st.DistinctSubjects,
	)
	if err != nil {
		return models.Stats{}, fmt.Errorf("credential stats: %w", err)
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		c         models.Credential
		id        string
		credType  string
		issuer    string
		subject   string
		revokedAt sql.NullTime
		reason    sql.NullString
	)
	if err := row.Scan(&id, &credType, &issuer, &subject, &c.IssuedAt, &c.ExpiresAt, &c.Weight, &c.Signature, &revokedAt, &reason); err != nil {
		return nil, err
	}
	c.ID = domain.CredentialID(id)
	c.Type = catalog.Type(credType)
	c.Issuer = domain.IssuerID(issuer)
	c.Subject = domain.SubjectID(subject)
	c.IssuedAt = c.IssuedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		c.RevokedAt = &t
	}
	c.RevocationReason = reason.String
	return &c, nil
}
