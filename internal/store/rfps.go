package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// InsertRFP persists a parsed RFP and returns its generated ID.
func (s *Store) InsertRFP(ctx context.Context, rec RFPRecord) (uuid.UUID, error) {
	requirements, err := json.Marshal(rec.ParsedRequirements)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling parsed requirements: %w", err)
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO rfps
		   (tenant_id, rfp_number, client_name, project_title,
		    raw_document_url, parsed_markdown, parsed_requirements)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		rec.TenantID, rec.RFPNumber, rec.ClientName, rec.ProjectTitle,
		rec.RawDocumentURL, rec.ParsedMarkdown, requirements,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting RFP: %w", err)
	}

	s.logger.Debug("inserted RFP", "id", id, "client", rec.ClientName)
	return id, nil
}

// SetRFPEmbedding stores the embedding generated after the RFP row exists.
func (s *Store) SetRFPEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE rfps SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return fmt.Errorf("setting RFP embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rfp %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRFP loads an RFP by ID. Returns ErrNotFound when absent.
func (s *Store) GetRFP(ctx context.Context, id uuid.UUID) (*RFP, error) {
	var r RFP
	var requirements []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, rfp_number, client_name, project_title,
		        project_start_date, raw_document_url, parsed_markdown, parsed_requirements
		 FROM rfps WHERE id = $1`,
		id,
	).Scan(
		&r.ID, &r.TenantID, &r.RFPNumber, &r.ClientName, &r.ProjectTitle,
		&r.ProjectStartDate, &r.RawDocumentURL, &r.ParsedMarkdown, &requirements,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rfp %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading RFP %s: %w", id, err)
	}

	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &r.ParsedRequirements); err != nil {
			s.logger.Warn("unparsable requirements payload", "rfp_id", id, "error", err)
		}
	}
	return &r, nil
}
