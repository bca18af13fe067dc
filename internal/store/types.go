package store

import (
	"time"

	"github.com/google/uuid"
)

// InternalResource is a row returned by the search_internal_resources stored
// function: the resource columns plus the hybrid similarity score computed by
// the function. Ordering and thresholding are decided remotely.
type InternalResource struct {
	ID                    uuid.UUID      `json:"id"`
	Name                  string         `json:"name"`
	ResourceType          string         `json:"resource_type"`
	Description           string         `json:"description"`
	ApprovalContactName   *string        `json:"approval_contact_name"`
	ApprovalContactEmail  *string        `json:"approval_contact_email"`
	HourlyRate            *float64       `json:"hourly_rate"`
	CapacityHoursPerMonth *int32         `json:"capacity_hours_per_month"`
	Skills                map[string]any `json:"skills"`
	Certifications        []string       `json:"certifications"`
	Similarity            float64        `json:"similarity"`
}

// Snapshot renders the resource as the current_information payload stored on
// a validation request and shown to the approver. The similarity score is a
// search artifact, not entity data, so it is excluded.
func (r *InternalResource) Snapshot() map[string]any {
	snap := map[string]any{
		"id":            r.ID.String(),
		"name":          r.Name,
		"resource_type": r.ResourceType,
		"description":   r.Description,
	}
	if r.ApprovalContactName != nil {
		snap["approval_contact_name"] = *r.ApprovalContactName
	}
	if r.ApprovalContactEmail != nil {
		snap["approval_contact_email"] = *r.ApprovalContactEmail
	}
	if r.HourlyRate != nil {
		snap["hourly_rate"] = *r.HourlyRate
	}
	if r.CapacityHoursPerMonth != nil {
		snap["capacity_hours_per_month"] = *r.CapacityHoursPerMonth
	}
	if len(r.Skills) > 0 {
		snap["skills"] = r.Skills
	}
	if len(r.Certifications) > 0 {
		snap["certifications"] = r.Certifications
	}
	return snap
}

// ExperienceMatch is a row returned by the search_experience stored function.
// Only validated experience ever surfaces here; the function enforces that.
type ExperienceMatch struct {
	ID              uuid.UUID  `json:"id"`
	Description     string     `json:"description"`
	Keywords        []string   `json:"keywords"`
	EntityType      *string    `json:"entity_type"`
	EntityID        *uuid.UUID `json:"entity_id"`
	EntityName      *string    `json:"entity_name"`
	SourceType      string     `json:"source_type"`
	ConfidenceScore float64    `json:"confidence_score"`
	Similarity      float64    `json:"similarity"`
}

// ExperienceRecord is the insert payload for a learned fact.
type ExperienceRecord struct {
	TenantID        *uuid.UUID
	Description     string
	Keywords        []string
	EntityType      *string
	EntityID        *uuid.UUID
	EntityName      *string
	SourceType      string
	SourceID        *string
	ConfidenceScore float64
	Embedding       []float32
	IsValidated     bool
}

// RFP is a parsed request-for-proposal row.
type RFP struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	RFPNumber          *string
	ClientName         string
	ProjectTitle       string
	ProjectStartDate   *time.Time
	RawDocumentURL     string
	ParsedMarkdown     *string
	ParsedRequirements map[string]any
}

// RFPRecord is the insert payload for parse_rfp.
type RFPRecord struct {
	TenantID           uuid.UUID
	RFPNumber          *string
	ClientName         string
	ProjectTitle       string
	RawDocumentURL     string
	ParsedMarkdown     string
	ParsedRequirements map[string]any
}

// ProposalRecord is the insert payload for a generated proposal draft.
type ProposalRecord struct {
	TenantID        uuid.UUID
	RFPID           uuid.UUID
	Title           string
	Status          string
	ResourceIDs     []uuid.UUID
	TotalCost       float64
	TeamComposition map[string]any
}

// ValidationRecord is the insert payload for an outbound validation request.
type ValidationRecord struct {
	TenantID           *uuid.UUID
	ProposalID         uuid.UUID
	EntityType         string
	EntityID           uuid.UUID
	ValidationQuestion string
	CurrentInformation map[string]any
	RecipientName      string
	RecipientEmail     string
	DeliveryMethod     string
}

// ValidationRequest is a validation_requests row as read back when a human
// response is processed.
type ValidationRequest struct {
	ID                uuid.UUID
	TenantID          *uuid.UUID
	ProposalID        uuid.UUID
	EntityType        string
	EntityID          uuid.UUID
	ValidationStatus  string
	ExperienceCreated bool
	ExperienceID      *uuid.UUID
}

// PendingReview is a row of the pending_reviews view (unvalidated experience).
type PendingReview struct {
	ID              uuid.UUID  `json:"id"`
	Description     string     `json:"description"`
	Keywords        []string   `json:"keywords"`
	EntityType      *string    `json:"entity_type"`
	EntityName      *string    `json:"entity_name"`
	SourceType      string     `json:"source_type"`
	ConfidenceScore float64    `json:"confidence_score"`
	CreatedAt       time.Time  `json:"created_at"`
	EntityID        *uuid.UUID `json:"entity_id"`
}

// ActiveValidation is a row of the active_validations view.
type ActiveValidation struct {
	ID                 uuid.UUID  `json:"id"`
	ProposalID         uuid.UUID  `json:"proposal_id"`
	EntityType         string     `json:"entity_type"`
	EntityID           uuid.UUID  `json:"entity_id"`
	ValidationQuestion string     `json:"validation_question"`
	RecipientName      string     `json:"recipient_name"`
	RecipientEmail     string     `json:"recipient_email"`
	DeliveryMethod     string     `json:"delivery_method"`
	ValidationStatus   string     `json:"validation_status"`
	SentAt             *time.Time `json:"sent_at"`
	CreatedAt          time.Time  `json:"created_at"`
}
