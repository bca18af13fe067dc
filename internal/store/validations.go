package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertValidationRequest persists an outbound validation request in the
// pending state and returns its generated ID.
func (s *Store) InsertValidationRequest(ctx context.Context, rec ValidationRecord) (uuid.UUID, error) {
	info, err := json.Marshal(rec.CurrentInformation)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling current information: %w", err)
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO validation_requests
		   (tenant_id, proposal_id, entity_type, entity_id, validation_question,
		    current_information, recipient_name, recipient_email, delivery_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		rec.TenantID, rec.ProposalID, rec.EntityType, rec.EntityID,
		rec.ValidationQuestion, info, rec.RecipientName, rec.RecipientEmail,
		rec.DeliveryMethod,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting validation request: %w", err)
	}

	s.logger.Debug("inserted validation request", "id", id, "proposal_id", rec.ProposalID)
	return id, nil
}

// MarkValidationSent records delivery metadata after a Teams or email send
// succeeds: the remote message ID (or email token) and the sent status.
// Returns ErrNotFound when the request does not exist.
func (s *Store) MarkValidationSent(ctx context.Context, id uuid.UUID, messageID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE validation_requests
		 SET message_id = $1, sent_at = now(), validation_status = 'sent'
		 WHERE id = $2`,
		messageID, id,
	)
	if err != nil {
		return fmt.Errorf("marking validation %s sent: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("validation request %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordValidationResponse stores a human's raw answer on the validation
// request and returns the updated row. Returns ErrNotFound when the request
// does not exist.
func (s *Store) RecordValidationResponse(ctx context.Context, id uuid.UUID, status string, corrections *string, responseData map[string]any) (*ValidationRequest, error) {
	payload, err := json.Marshal(responseData)
	if err != nil {
		return nil, fmt.Errorf("marshaling response data: %w", err)
	}

	var v ValidationRequest
	err = s.db.QueryRow(ctx,
		`UPDATE validation_requests
		 SET validation_status = $1,
		     response_received_at = now(),
		     corrections_provided = $2,
		     response_data = $3
		 WHERE id = $4
		 RETURNING id, tenant_id, proposal_id, entity_type, entity_id,
		           validation_status, experience_created, experience_id`,
		status, corrections, payload, id,
	).Scan(
		&v.ID, &v.TenantID, &v.ProposalID, &v.EntityType, &v.EntityID,
		&v.ValidationStatus, &v.ExperienceCreated, &v.ExperienceID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("validation request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("recording validation response %s: %w", id, err)
	}
	return &v, nil
}

// LinkExperience attaches a newly recorded experience to the validation
// request it came from. The experience_created guard makes the link
// at-most-once: a second link attempt is a no-op reported as false.
func (s *Store) LinkExperience(ctx context.Context, validationID, experienceID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE validation_requests
		 SET experience_created = true, experience_id = $1
		 WHERE id = $2 AND experience_created = false`,
		experienceID, validationID,
	)
	if err != nil {
		return false, fmt.Errorf("linking experience to validation %s: %w", validationID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListActiveValidations reads the active_validations view: requests that are
// pending or sent and still awaiting a human response.
func (s *Store) ListActiveValidations(ctx context.Context, limit int) ([]ActiveValidation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, proposal_id, entity_type, entity_id, validation_question,
		        recipient_name, recipient_email, delivery_method,
		        validation_status, sent_at, created_at
		 FROM active_validations
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active validations: %w", err)
	}
	defer rows.Close()

	validations := make([]ActiveValidation, 0)
	for rows.Next() {
		var v ActiveValidation
		if err := rows.Scan(
			&v.ID, &v.ProposalID, &v.EntityType, &v.EntityID, &v.ValidationQuestion,
			&v.RecipientName, &v.RecipientEmail, &v.DeliveryMethod,
			&v.ValidationStatus, &v.SentAt, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning active validation: %w", err)
		}
		validations = append(validations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating active validations: %w", err)
	}
	return validations, nil
}
