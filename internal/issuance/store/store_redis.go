package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	credmodels "trustscore/internal/credential/models"
	"trustscore/internal/issuance/models"
	"trustscore/pkg/domain"
)

const redisDraftKeyPrefix = "issuance:draft:"

// RedisStore persists drafts in Redis with TTL-based eviction so that any
// instance can accept the signature for a draft another instance created.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// draftJSON is the stored representation. Times are unix seconds, matching
// the resolution credentials are signed at.
type draftJSON struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Issuer       string `json:"issuer"`
	Subject      string `json:"subject"`
	IssuedAt     int64  `json:"issued_at"`
	ExpiresAt    int64  `json:"expires_at"`
	Weight       int    `json:"weight"`
	Payload      string `json:"payload"`
	Digest       string `json:"digest"`
	RequestedAt  int64  `json:"requested_at"`
	PendingUntil int64  `json:"pending_until"`
}

func draftToJSON(d *models.Draft) *draftJSON {
	c := d.Credential
	return &draftJSON{
		ID:           string(c.ID),
		Type:         string(c.Type),
		Issuer:       string(c.Issuer),
		Subject:      string(c.Subject),
		IssuedAt:     c.IssuedAt.Unix(),
		ExpiresAt:    c.ExpiresAt.Unix(),
		Weight:       c.Weight,
		Payload:      hex.EncodeToString(d.Payload),
		Digest:       d.Digest.Hex(),
		RequestedAt:  d.RequestedAt.Unix(),
		PendingUntil: d.PendingUntil.Unix(),
	}
}

func draftFromJSON(j *draftJSON) (*models.Draft, error) {
	payload, err := hex.DecodeString(j.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode draft payload: %w", err)
	}
	digest, err := codec.ParseDigest(j.Digest)
	if err != nil {
		return nil, fmt.Errorf("decode draft digest: %w", err)
	}
	return &models.Draft{
		Credential: &credmodels.Credential{
			ID:        domain.CredentialID(j.ID),
			Type:      catalog.Type(j.Type),
			Issuer:    domain.IssuerID(j.Issuer),
			Subject:   domain.SubjectID(j.Subject),
			IssuedAt:  time.Unix(j.IssuedAt, 0).UTC(),
			ExpiresAt: time.Unix(j.ExpiresAt, 0).UTC(),
			Weight:    j.Weight,
		},
		Payload:      payload,
		Digest:       digest,
		RequestedAt:  time.Unix(j.RequestedAt, 0).UTC(),
		PendingUntil: time.Unix(j.PendingUntil, 0).UTC(),
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, d *models.Draft, ttl time.Duration) error {
	payload, err := json.Marshal(draftToJSON(d))
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	ok, err := s.client.SetNX(ctx, draftKey(d.ID()), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id domain.CredentialID) (*models.Draft, error) {
	data, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find draft: %w", err)
	}
	var j draftJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return draftFromJSON(&j)
}

func (s *RedisStore) Delete(ctx context.Context, id domain.CredentialID) error {
	if err := s.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func draftKey(id domain.CredentialID) string {
	return redisDraftKeyPrefix + string(id)
}
