package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// InsertExperience persists a learned fact and returns its generated ID.
func (s *Store) InsertExperience(ctx context.Context, rec ExperienceRecord) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO experience
		   (tenant_id, description, keywords, entity_type, entity_id, entity_name,
		    source_type, source_id, confidence_score, embedding, is_validated, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'ai')
		 RETURNING id`,
		rec.TenantID, rec.Description, rec.Keywords,
		rec.EntityType, rec.EntityID, rec.EntityName,
		rec.SourceType, rec.SourceID, rec.ConfidenceScore,
		pgvector.NewVector(rec.Embedding), rec.IsValidated,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting experience: %w", err)
	}

	s.logger.Debug("inserted experience", "id", id, "source_type", rec.SourceType, "is_validated", rec.IsValidated)
	return id, nil
}

// SearchExperience calls the search_experience stored function. entityType is
// forwarded to the function (it filters remotely, unlike the resource search).
// The function only ever returns validated rows.
func (s *Store) SearchExperience(ctx context.Context, queryText string, queryEmbedding pgvector.Vector, matchThreshold float64, matchCount int, entityType *string) ([]ExperienceMatch, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, description, keywords, entity_type, entity_id, entity_name,
		        source_type, confidence_score, similarity
		 FROM search_experience($1, $2, $3, $4, $5)`,
		queryText, queryEmbedding, matchThreshold, matchCount, entityType,
	)
	if err != nil {
		return nil, fmt.Errorf("searching experience: %w", err)
	}
	defer rows.Close()

	matches := make([]ExperienceMatch, 0)
	for rows.Next() {
		var m ExperienceMatch
		if err := rows.Scan(
			&m.ID, &m.Description, &m.Keywords, &m.EntityType, &m.EntityID,
			&m.EntityName, &m.SourceType, &m.ConfidenceScore, &m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scanning experience match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating experience matches: %w", err)
	}
	return matches, nil
}

// ListPendingReviews reads the pending_reviews view: experience rows still
// waiting for a human to validate them.
func (s *Store) ListPendingReviews(ctx context.Context, limit int) ([]PendingReview, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, description, keywords, entity_type, entity_id, entity_name,
		        source_type, confidence_score, created_at
		 FROM pending_reviews
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]PendingReview, 0)
	for rows.Next() {
		var r PendingReview
		if err := rows.Scan(
			&r.ID, &r.Description, &r.Keywords, &r.EntityType, &r.EntityID,
			&r.EntityName, &r.SourceType, &r.ConfidenceScore, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning pending review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending reviews: %w", err)
	}
	return reviews, nil
}
