package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// SearchResources calls the search_internal_resources stored function with
// the query text, its embedding, and the remote threshold/limit. The function
// owns scoring and ordering; no re-ranking happens here.
func (s *Store) SearchResources(ctx context.Context, queryText string, queryEmbedding pgvector.Vector, matchThreshold float64, matchCount int) ([]InternalResource, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, resource_type, description,
		        approval_contact_name, approval_contact_email,
		        hourly_rate, capacity_hours_per_month,
		        skills, certifications, similarity
		 FROM search_internal_resources($1, $2, $3, $4)`,
		queryText, queryEmbedding, matchThreshold, matchCount,
	)
	if err != nil {
		return nil, fmt.Errorf("searching internal resources: %w", err)
	}
	defer rows.Close()

	resources := make([]InternalResource, 0)
	for rows.Next() {
		var r InternalResource
		var skillsJSON []byte
		if err := rows.Scan(
			&r.ID, &r.Name, &r.ResourceType, &r.Description,
			&r.ApprovalContactName, &r.ApprovalContactEmail,
			&r.HourlyRate, &r.CapacityHoursPerMonth,
			&skillsJSON, &r.Certifications, &r.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		if len(skillsJSON) > 0 {
			if err := json.Unmarshal(skillsJSON, &r.Skills); err != nil {
				s.logger.Warn("unparsable skills payload", "resource_id", r.ID, "error", err)
			}
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return resources, nil
}

// patchableResourceColumns is the allow-list for PatchResource. Identity,
// embedding, and search-vector columns are never writable through a
// validation correction.
var patchableResourceColumns = map[string]struct{}{
	"name":                     {},
	"resource_type":            {},
	"description":              {},
	"approval_contact_name":    {},
	"approval_contact_email":   {},
	"hourly_rate":              {},
	"capacity_hours_per_month": {},
	"skills":                   {},
	"certifications":           {},
}

// PatchResource applies updated_information from a validation response as a
// direct field update on an internal resource. Unknown columns are skipped
// (logged), not errors — approvers submit free-form key/value corrections.
// Returns ErrNotFound when the resource does not exist.
func (s *Store) PatchResource(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	builder := sq.Update("internal_resources").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	applied := 0
	for col, val := range fields {
		if _, ok := patchableResourceColumns[col]; !ok {
			s.logger.Warn("skipping non-patchable column", "column", col, "resource_id", id)
			continue
		}
		if col == "skills" {
			payload, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("marshaling skills patch: %w", err)
			}
			builder = builder.Set(col, payload)
		} else {
			builder = builder.Set(col, val)
		}
		applied++
	}
	if applied == 0 {
		s.logger.Debug("patch contained no applicable fields", "resource_id", id)
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building resource patch: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patching resource %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resource %s: %w", id, ErrNotFound)
	}

	s.logger.Debug("patched resource", "resource_id", id, "fields", applied)
	return nil
}
