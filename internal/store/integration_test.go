//go:build integration

package store_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/store"
	"github.com/proposalkb/proposalkb/internal/testutil"
)

var sharedDB *testutil.TestDB

func TestMain(m *testing.M) {
	var cleanup func()
	var err error
	sharedDB, cleanup, err = testutil.SetupTestDBForMain()
	if err != nil {
		log.Fatalf("starting test database: %v", err)
	}
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	testutil.CleanTables(t, sharedDB.Pool)
	s, err := store.New(sharedDB.Pool, logpkg.NewNop())
	require.NoError(t, err)
	return s
}

// oneHot returns a 768-dim unit vector. Distinct indexes are orthogonal, so
// cosine similarity is 1 for the same index and 0 otherwise.
func oneHot(index int) []float32 {
	vec := make([]float32, 768)
	vec[index] = 1
	return vec
}

func insertResource(t *testing.T, name, resourceType, description string, embedding []float32) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := sharedDB.Pool.QueryRow(context.Background(),
		`INSERT INTO internal_resources (name, resource_type, description, hourly_rate, embedding)
		 VALUES ($1, $2, $3, 150, $4) RETURNING id`,
		name, resourceType, description, pgvector.NewVector(embedding),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestSearchResourcesHybrid(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	matchID := insertResource(t, "Alice", "staff", "senior golang engineer", oneHot(1))
	insertResource(t, "Forklift", "asset", "warehouse forklift", oneHot(2))

	results, err := s.SearchResources(ctx, "golang engineer", pgvector.NewVector(oneHot(1)), 0.5, 10)
	require.NoError(t, err)

	require.Len(t, results, 1, "orthogonal vectors fall below the threshold")
	assert.Equal(t, matchID, results[0].ID)
	assert.Equal(t, "Alice", results[0].Name)
	assert.Greater(t, results[0].Similarity, 0.5)
	require.NotNil(t, results[0].HourlyRate)
	assert.Equal(t, 150.0, *results[0].HourlyRate)
}

func TestSearchExperienceReviewGate(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.InsertExperience(ctx, store.ExperienceRecord{
		Description:     "unreviewed fact",
		Keywords:        []string{"fact"},
		SourceType:      "ai_inference",
		ConfidenceScore: 0.8,
		Embedding:       oneHot(3),
		IsValidated:     false,
	})
	require.NoError(t, err)

	validatedID, err := s.InsertExperience(ctx, store.ExperienceRecord{
		Description:     "validated fact",
		Keywords:        []string{"fact"},
		SourceType:      "validation_response",
		ConfidenceScore: 0.95,
		Embedding:       oneHot(3),
		IsValidated:     true,
	})
	require.NoError(t, err)

	matches, err := s.SearchExperience(ctx, "fact", pgvector.NewVector(oneHot(3)), 0.5, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1, "only validated experience is searchable")
	assert.Equal(t, validatedID, matches[0].ID)

	// The unreviewed row shows up in the review queue instead.
	reviews, err := s.ListPendingReviews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "unreviewed fact", reviews[0].Description)
}

func TestSearchExperienceEntityTypeFilter(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	policyType := "policy"
	resourceType := "internal_resource"
	for _, et := range []string{policyType, resourceType} {
		et := et
		_, err := s.InsertExperience(ctx, store.ExperienceRecord{
			Description:     "typed fact",
			SourceType:      "ai_inference",
			ConfidenceScore: 0.8,
			EntityType:      &et,
			Embedding:       oneHot(4),
			IsValidated:     true,
		})
		require.NoError(t, err)
	}

	matches, err := s.SearchExperience(ctx, "typed", pgvector.NewVector(oneHot(4)), 0.5, 10, &policyType)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].EntityType)
	assert.Equal(t, policyType, *matches[0].EntityType)
}

func TestRFPRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tenant := uuid.New()
	id, err := s.InsertRFP(ctx, store.RFPRecord{
		TenantID:           tenant,
		ClientName:         "Acme",
		ProjectTitle:       "Atlas",
		RawDocumentURL:     "https://rfps.example.com/atlas.pdf",
		ParsedMarkdown:     "RFP document: https://rfps.example.com/atlas.pdf",
		ParsedRequirements: map[string]any{"summary": "RFP for Atlas from Acme"},
	})
	require.NoError(t, err)

	require.NoError(t, s.SetRFPEmbedding(ctx, id, oneHot(5)))

	rfp, err := s.GetRFP(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tenant, rfp.TenantID)
	assert.Equal(t, "RFP for Atlas from Acme", rfp.ParsedRequirements["summary"])

	_, err = s.GetRFP(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.SetRFPEmbedding(ctx, uuid.New(), oneHot(5)), store.ErrNotFound)
}

func TestValidationLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tenant := uuid.New()
	rfpID, err := s.InsertRFP(ctx, store.RFPRecord{
		TenantID:       tenant,
		ClientName:     "Acme",
		ProjectTitle:   "Atlas",
		RawDocumentURL: "u",
	})
	require.NoError(t, err)
	proposalID, err := s.InsertProposal(ctx, store.ProposalRecord{
		TenantID: tenant,
		RFPID:    rfpID,
		Title:    "Proposal for Atlas",
		Status:   "draft",
	})
	require.NoError(t, err)

	valID, err := s.InsertValidationRequest(ctx, store.ValidationRecord{
		TenantID:           &tenant,
		ProposalID:         proposalID,
		EntityType:         "internal_resource",
		EntityID:           uuid.New(),
		ValidationQuestion: "Can Alice be allocated?",
		CurrentInformation: map[string]any{"name": "Alice"},
		RecipientName:      "Dana",
		RecipientEmail:     "dana@example.com",
		DeliveryMethod:     "email",
	})
	require.NoError(t, err)

	require.NoError(t, s.MarkValidationSent(ctx, valID, "msg-1"))

	active, err := s.ListActiveValidations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "sent", active[0].ValidationStatus)

	corrections := "rate is now 175"
	req, err := s.RecordValidationResponse(ctx, valID, "approved", &corrections, map[string]any{"approved": true})
	require.NoError(t, err)
	assert.Equal(t, "approved", req.ValidationStatus)
	assert.False(t, req.ExperienceCreated)

	// Responded requests leave the active queue.
	active, err = s.ListActiveValidations(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, active)

	expID, err := s.InsertExperience(ctx, store.ExperienceRecord{
		Description:     corrections,
		SourceType:      "validation_response",
		ConfidenceScore: 0.95,
		Embedding:       oneHot(6),
	})
	require.NoError(t, err)

	linked, err := s.LinkExperience(ctx, valID, expID)
	require.NoError(t, err)
	assert.True(t, linked)

	// Second link attempt is a no-op.
	linked, err = s.LinkExperience(ctx, valID, uuid.New())
	require.NoError(t, err)
	assert.False(t, linked)

	_, err = s.RecordValidationResponse(ctx, uuid.New(), "approved", nil, nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidationTokens(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	valID := uuid.New()
	require.NoError(t, s.InsertValidationToken(ctx, "tok-live", valID, time.Hour))
	require.NoError(t, s.InsertValidationToken(ctx, "tok-stale", valID, -time.Hour))

	got, err := s.LookupValidationToken(ctx, "tok-live")
	require.NoError(t, err)
	assert.Equal(t, valID, got)

	_, err = s.LookupValidationToken(ctx, "tok-stale")
	require.ErrorIs(t, err, store.ErrTokenExpired)

	_, err = s.LookupValidationToken(ctx, "tok-missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPatchResource(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id := insertResource(t, "Alice", "staff", "engineer", oneHot(7))

	err := s.PatchResource(ctx, id, map[string]any{
		"hourly_rate": 175,
		"embedding":   "injected", // not patchable, skipped
	})
	require.NoError(t, err)

	var rate float64
	require.NoError(t, sharedDB.Pool.QueryRow(ctx,
		`SELECT hourly_rate FROM internal_resources WHERE id = $1`, id).Scan(&rate))
	assert.Equal(t, 175.0, rate)

	require.ErrorIs(t, s.PatchResource(ctx, uuid.New(), map[string]any{"hourly_rate": 1}), store.ErrNotFound)
}
