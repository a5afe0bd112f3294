package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"veridoc/internal/mismatch"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// PostgresStore persists verifications in PostgreSQL. Scalar verdict columns
// are queryable; document results and mismatches live in JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, v Verification) error {
	documents, err := json.Marshal(v.Documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	mismatches, err := json.Marshal(v.Mismatches)
	if err != nil {
		return fmt.Errorf("marshal mismatches: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications
			(id, customer_id, documents, mismatches, quality_score, risk_tier, decision,
			 red_count, yellow_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			documents = EXCLUDED.documents,
			mismatches = EXCLUDED.mismatches,
			quality_score = EXCLUDED.quality_score,
			risk_tier = EXCLUDED.risk_tier,
			decision = EXCLUDED.decision,
			red_count = EXCLUDED.red_count,
			yellow_count = EXCLUDED.yellow_count,
			updated_at = EXCLUDED.updated_at`,
		v.ID, v.CustomerID, documents, mismatches, v.QualityScore, int(v.RiskTier),
		v.Decision.String(), v.RedCount, v.YellowCount, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Verification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, documents, mismatches, quality_score, risk_tier, decision,
		       red_count, yellow_count, created_at, updated_at
		FROM verifications WHERE id = $1`, id)
	v, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Verification{}, dErrors.New(dErrors.CodeNotFound, "verification not found: "+id)
		}
		return Verification{}, fmt.Errorf("find verification: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) List(ctx context.Context, customerID string) ([]Verification, error) {
	query := `
		SELECT id, customer_id, documents, mismatches, quality_score, risk_tier, decision,
		       red_count, yellow_count, created_at, updated_at
		FROM verifications`
	var args []any
	if customerID != "" {
		query += ` WHERE customer_id = $1`
		args = append(args, customerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (Verification, error) {
	var v Verification
	var documents, mismatches []byte
	var tier int
	var decision string
	err := row.Scan(&v.ID, &v.CustomerID, &documents, &mismatches, &v.QualityScore,
		&tier, &decision, &v.RedCount, &v.YellowCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Verification{}, err
	}
	if err := json.Unmarshal(documents, &v.Documents); err != nil {
		return Verification{}, fmt.Errorf("unmarshal documents: %w", err)
	}
	if len(mismatches) > 0 {
		var ms []mismatch.Mismatch
		if err := json.Unmarshal(mismatches, &ms); err != nil {
			return Verification{}, fmt.Errorf("unmarshal mismatches: %w", err)
		}
		v.Mismatches = ms
	}
	v.RiskTier = domain.RiskTier(tier)
	v.Decision = domain.Decision(decision)
	return v, nil
}
