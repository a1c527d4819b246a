package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/issuer/models"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/sentinel"
)

// PostgresStore persists issuers and their type authorizations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Record) error {
	if r == nil {
		return fmt.Errorf("issuer is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO issuers (address, display_name, trust_score, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, string(r.Address), r.DisplayName, r.TrustScore, r.Active, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert issuer: %w", err)
		}
		return insertAuthorizations(ctx, tx, r)
	})
}

func (s *PostgresStore) FindByAddress(ctx context.Context, address domain.IssuerID) (*models.Record, error) {
	var r models.Record
	var addr string
	err := s.db.QueryRowContext(ctx, `
		SELECT address, display_name, trust_score, active, created_at, updated_at
		FROM issuers
		WHERE address = $1
	`, string(address)).Scan(&addr, &r.DisplayName, &r.TrustScore, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find issuer: %w", err)
	}
	r.Address = domain.IssuerID(addr)

	types, err := s.authorizations(ctx, address)
	if err != nil {
		return nil, err
	}
	r.Types = types
	return &r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.address, i.display_name, i.trust_score, i.active, i.created_at, i.updated_at, a.credential_type
		FROM issuers i
		LEFT JOIN issuer_authorizations a ON a.address = i.address
		ORDER BY i.address, a.credential_type
	`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		var r models.Record
		var addr string
		var credType sql.NullString
		if err := rows.Scan(&addr, &r.DisplayName, &r.TrustScore, &r.Active, &r.CreatedAt, &r.UpdatedAt, &credType); err != nil {
			return nil, fmt.Errorf("scan issuer: %w", err)
		}
		r.Address = domain.IssuerID(addr)
		if n := len(out); n == 0 || out[n-1].Address != r.Address {
			out = append(out, &r)
		}
		if credType.Valid {
			last := out[len(out)-1]
			last.Types = append(last.Types, catalog.Type(credType.String))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuers: %w", err)
	}
	return out, nil
}

// Update replaces the mutable fields and the full authorization set.
func (s *PostgresStore) Update(ctx context.Context, r *models.Record) error {
	if r == nil {
		return fmt.Errorf("issuer is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE issuers
			SET display_name = $2, trust_score = $3, active = $4, updated_at = $5
			WHERE address = $1
		`, string(r.Address), r.DisplayName, r.TrustScore, r.Active, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update issuer: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update issuer rows: %w", err)
		}
		if rows == 0 {
			return sentinel.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM issuer_authorizations WHERE address = $1`, string(r.Address)); err != nil {
			return fmt.Errorf("clear authorizations: %w", err)
		}
		return insertAuthorizations(ctx, tx, r)
	})
}

func (s *PostgresStore) authorizations(ctx context.Context, address domain.IssuerID) ([]catalog.Type, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT credential_type FROM issuer_authorizations
		WHERE address = $1
		ORDER BY credential_type
	`, string(address))
	if err != nil {
		return nil, fmt.Errorf("list authorizations: %w", err)
	}
	defer rows.Close()
	var types []catalog.Type
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan authorization: %w", err)
		}
		types = append(types, catalog.Type(t))
	}
	return types, rows.Err()
}

func insertAuthorizations(ctx context.Context, tx *sql.Tx, r *models.Record) error {
	for _, t := range r.Types {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO issuer_authorizations (address, credential_type)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, string(r.Address), string(t)); err != nil {
			return fmt.Errorf("insert authorization: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
