package dispute

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// PostgresStore persists disputes in PostgreSQL. Update guards the status
// column in the WHERE clause; zero rows affected means a concurrent
// transition won.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type disputeStages struct {
	Triage         *Triage         `json:"triage,omitempty"`
	ReVerification *ReVerification `json:"re_verification,omitempty"`
	Resolution     *Resolution     `json:"resolution,omitempty"`
}

func (s *PostgresStore) Save(ctx context.Context, d Dispute) error {
	stages, additional, err := marshalDispute(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO disputes
			(id, verification_id, customer_reason, additional_documents, status,
			 original_decision, stages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.VerificationID, d.CustomerReason, additional, d.Status.String(),
		d.OriginalDecision.String(), stages, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save dispute: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Dispute, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, verification_id, customer_reason, additional_documents, status,
		       original_decision, stages, created_at, updated_at
		FROM disputes WHERE id = $1`, id)
	d, err := scanDispute(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dispute{}, dErrors.New(dErrors.CodeNotFound, "dispute not found: "+id)
		}
		return Dispute{}, fmt.Errorf("find dispute: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) Update(ctx context.Context, d Dispute, expectedStatus domain.DisputeStatus) error {
	stages, additional, err := marshalDispute(d)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE disputes
		SET customer_reason = $2, additional_documents = $3, status = $4,
		    stages = $5, updated_at = $6
		WHERE id = $1 AND status = $7`,
		d.ID, d.CustomerReason, additional, d.Status.String(), stages, d.UpdatedAt,
		expectedStatus.String(),
	)
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	if n == 0 {
		// Either the dispute is gone or another transition got there first.
		if _, findErr := s.FindByID(ctx, d.ID); findErr != nil {
			return findErr
		}
		return dErrors.New(dErrors.CodeConflict, "dispute modified concurrently: "+d.ID)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Dispute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, verification_id, customer_reason, additional_documents, status,
		       original_decision, stages, created_at, updated_at
		FROM disputes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()

	var out []Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispute: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func marshalDispute(d Dispute) (stages, additional []byte, err error) {
	stages, err = json.Marshal(disputeStages{
		Triage:         d.Triage,
		ReVerification: d.ReVerification,
		Resolution:     d.Resolution,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal dispute stages: %w", err)
	}
	additional, err = json.Marshal(d.AdditionalDocuments)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal additional documents: %w", err)
	}
	return stages, additional, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (Dispute, error) {
	var d Dispute
	var status, decision string
	var stages, additional []byte
	err := row.Scan(&d.ID, &d.VerificationID, &d.CustomerReason, &additional, &status,
		&decision, &stages, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Dispute{}, err
	}
	d.Status = domain.DisputeStatus(status)
	d.OriginalDecision = domain.Decision(decision)
	if len(additional) > 0 {
		if err := json.Unmarshal(additional, &d.AdditionalDocuments); err != nil {
			return Dispute{}, fmt.Errorf("unmarshal additional documents: %w", err)
		}
	}
	if len(stages) > 0 {
		var st disputeStages
		if err := json.Unmarshal(stages, &st); err != nil {
			return Dispute{}, fmt.Errorf("unmarshal dispute stages: %w", err)
		}
		d.Triage, d.ReVerification, d.Resolution = st.Triage, st.ReVerification, st.Resolution
	}
	return d, nil
}
