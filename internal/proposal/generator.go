package proposal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/search"
	"github.com/proposalkb/proposalkb/internal/store"
)

// AllocationHours is the monthly allocation assumed when pricing a resource.
const AllocationHours = 160

// candidateLimit caps how many resources and experience entries the
// generator considers per RFP.
const candidateLimit = 20

// ProgressFunc reports pipeline progress. Implementations must tolerate nil.
type ProgressFunc func(progress, total float64, message string)

// GeneratorStore is the slice of the store the generator needs.
type GeneratorStore interface {
	GetRFP(ctx context.Context, id uuid.UUID) (*store.RFP, error)
	InsertProposal(ctx context.Context, rec store.ProposalRecord) (uuid.UUID, error)
	InsertValidationRequest(ctx context.Context, rec store.ValidationRecord) (uuid.UUID, error)
}

// Searcher is the slice of the search facade the generator needs.
type Searcher interface {
	Resources(ctx context.Context, q search.ResourceQuery) ([]store.InternalResource, error)
	Experience(ctx context.Context, q search.ExperienceQuery) ([]store.ExperienceMatch, error)
}

// Generator drafts proposals from parsed RFPs.
type Generator struct {
	store    GeneratorStore
	searcher Searcher
	logger   log.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(st GeneratorStore, searcher Searcher, logger log.Logger) (*Generator, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{store: st, searcher: searcher, logger: logger}, nil
}

// Generate runs the sequential proposal pipeline for one RFP: allocate
// resources, price the team, persist a draft, and open validation requests.
// Each stage commits before the next runs; a mid-pipeline failure leaves the
// committed rows in place rather than rolling them back, so a retry creates a
// fresh proposal.
func (g *Generator) Generate(ctx context.Context, rfpID uuid.UUID, progress ProgressFunc) (string, error) {
	report := func(p float64, msg string) {
		if progress != nil {
			progress(p, 100, msg)
		}
	}

	report(0, "Loading RFP")
	rfp, err := g.store.GetRFP(ctx, rfpID)
	if err != nil {
		return "", err
	}

	query := requirementsSummary(rfp)

	report(10, "Searching for relevant resources")
	resources, err := g.searcher.Resources(ctx, search.ResourceQuery{
		Query:      query,
		MaxResults: candidateLimit,
	})
	if err != nil {
		return "", fmt.Errorf("searching resources: %w", err)
	}

	report(30, "Consulting institutional knowledge")
	experience, err := g.searcher.Experience(ctx, search.ExperienceQuery{
		Query:      query,
		MaxResults: candidateLimit,
	})
	if err != nil {
		return "", fmt.Errorf("searching experience: %w", err)
	}
	// Learnings inform the draft contextually; they are not yet woven into
	// generated prose.
	g.logger.Debug("consulted experience", "rfp_id", rfpID, "matches", len(experience))

	report(50, "Drafting proposal")
	var totalCost float64
	resourceIDs := make([]uuid.UUID, 0, len(resources))
	team := make([]map[string]any, 0, len(resources))
	for _, r := range resources {
		resourceIDs = append(resourceIDs, r.ID)
		member := map[string]any{
			"id":   r.ID.String(),
			"name": r.Name,
			"type": r.ResourceType,
		}
		if r.HourlyRate != nil {
			member["rate"] = *r.HourlyRate
			totalCost += *r.HourlyRate * AllocationHours
		} else {
			member["rate"] = nil
		}
		team = append(team, member)
	}

	proposalID, err := g.store.InsertProposal(ctx, store.ProposalRecord{
		TenantID:        rfp.TenantID,
		RFPID:           rfp.ID,
		Title:           fmt.Sprintf("Proposal for %s", rfp.ProjectTitle),
		Status:          "draft",
		ResourceIDs:     resourceIDs,
		TotalCost:       totalCost,
		TeamComposition: map[string]any{"resources": team},
	})
	if err != nil {
		return "", err
	}

	report(70, "Creating validation requests")
	startDate := "TBD"
	if rfp.ProjectStartDate != nil {
		startDate = rfp.ProjectStartDate.Format("2006-01-02")
	}
	for _, r := range resources {
		rec := store.ValidationRecord{
			TenantID:   &rfp.TenantID,
			ProposalID: proposalID,
			EntityType: "internal_resource",
			EntityID:   r.ID,
			ValidationQuestion: fmt.Sprintf(
				"Can %s be allocated to project '%s' starting %s?",
				r.Name, rfp.ProjectTitle, startDate),
			CurrentInformation: r.Snapshot(),
			RecipientName:      "Manager",
			RecipientEmail:     "manager@example.com",
			DeliveryMethod:     "email",
		}
		if r.ApprovalContactName != nil {
			rec.RecipientName = *r.ApprovalContactName
		}
		if r.ApprovalContactEmail != nil {
			rec.RecipientEmail = *r.ApprovalContactEmail
		}
		if _, err := g.store.InsertValidationRequest(ctx, rec); err != nil {
			return "", fmt.Errorf("creating validation request for %s: %w", r.ID, err)
		}
	}

	report(100, "Proposal draft complete")
	g.logger.Info("generated proposal", "id", proposalID, "rfp_id", rfpID,
		"resources", len(resources), "total_cost", totalCost)

	return fmt.Sprintf(
		"Created proposal %s with %d resources requiring validation. Total estimated cost: $%s",
		proposalID, len(resources), formatAmount(totalCost)), nil
}

// requirementsSummary derives the allocation search query from the parsed
// requirements, falling back to the headline fields.
func requirementsSummary(rfp *store.RFP) string {
	if s, ok := rfp.ParsedRequirements["summary"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fmt.Sprintf("%s %s", rfp.ProjectTitle, rfp.ClientName)
}

// formatAmount renders a dollar amount with thousands separators and two
// decimals, e.g. 148800 -> "148,800.00".
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac, _ := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
