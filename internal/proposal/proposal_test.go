package proposal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proposalkb/proposalkb/internal/embedding/embeddingtest"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/search"
	"github.com/proposalkb/proposalkb/internal/store"
)

type mockRFPStore struct {
	insertedRFP  store.RFPRecord
	rfpID        uuid.UUID
	embedded     map[uuid.UUID][]float32
	rfp          *store.RFP
	proposal     store.ProposalRecord
	proposalID   uuid.UUID
	validations  []store.ValidationRecord
	insertErr    error
	getErr       error
	proposalErr  error
	validateErr  error
}

func (m *mockRFPStore) InsertRFP(_ context.Context, rec store.RFPRecord) (uuid.UUID, error) {
	if m.insertErr != nil {
		return uuid.Nil, m.insertErr
	}
	m.insertedRFP = rec
	return m.rfpID, nil
}

func (m *mockRFPStore) SetRFPEmbedding(_ context.Context, id uuid.UUID, vec []float32) error {
	if m.embedded == nil {
		m.embedded = map[uuid.UUID][]float32{}
	}
	m.embedded[id] = vec
	return nil
}

func (m *mockRFPStore) GetRFP(_ context.Context, id uuid.UUID) (*store.RFP, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.rfp, nil
}

func (m *mockRFPStore) InsertProposal(_ context.Context, rec store.ProposalRecord) (uuid.UUID, error) {
	if m.proposalErr != nil {
		return uuid.Nil, m.proposalErr
	}
	m.proposal = rec
	return m.proposalID, nil
}

func (m *mockRFPStore) InsertValidationRequest(_ context.Context, rec store.ValidationRecord) (uuid.UUID, error) {
	if m.validateErr != nil {
		return uuid.Nil, m.validateErr
	}
	m.validations = append(m.validations, rec)
	return uuid.New(), nil
}

type mockSearcher struct {
	resourceQuery   search.ResourceQuery
	experienceQuery search.ExperienceQuery
	resources       []store.InternalResource
	experience      []store.ExperienceMatch
	resourceErr     error
}

func (m *mockSearcher) Resources(_ context.Context, q search.ResourceQuery) ([]store.InternalResource, error) {
	m.resourceQuery = q
	return m.resources, m.resourceErr
}

func (m *mockSearcher) Experience(_ context.Context, q search.ExperienceQuery) ([]store.ExperienceMatch, error) {
	m.experienceQuery = q
	return m.experience, nil
}

func TestParseRFPTenantRequired(t *testing.T) {
	p, err := NewParser(&mockRFPStore{}, embeddingtest.NewFake(8), nil, log.NewNop())
	require.NoError(t, err)

	_, err = p.ParseRFP(context.Background(), ParseInput{DocumentURL: "https://rfps.example.com/1.pdf"})
	require.ErrorIs(t, err, ErrTenantRequired)
}

func TestParseRFPInvalidTenant(t *testing.T) {
	p, err := NewParser(&mockRFPStore{}, embeddingtest.NewFake(8), nil, log.NewNop())
	require.NoError(t, err)

	_, err = p.ParseRFP(context.Background(), ParseInput{
		DocumentURL: "https://rfps.example.com/1.pdf",
		TenantID:    "not-a-uuid",
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTenantRequired)
}

func TestParseRFP(t *testing.T) {
	st := &mockRFPStore{rfpID: uuid.New()}
	def := uuid.New()
	p, err := NewParser(st, embeddingtest.NewFake(8), &def, log.NewNop())
	require.NoError(t, err)

	res, err := p.ParseRFP(context.Background(), ParseInput{
		DocumentURL:  "https://rfps.example.com/atlas.pdf",
		RFPNumber:    "RFP-2026-042",
		ClientName:   "Acme Corp",
		ProjectTitle: "Atlas Migration",
	})
	require.NoError(t, err)
	assert.Equal(t, st.rfpID, res.RFPID)
	assert.Equal(t, "RFP for Atlas Migration from Acme Corp", res.Requirements["summary"])

	rec := st.insertedRFP
	assert.Equal(t, def, rec.TenantID, "default tenant applies")
	require.NotNil(t, rec.RFPNumber)
	assert.Equal(t, "RFP-2026-042", *rec.RFPNumber)
	assert.Equal(t, "RFP document: https://rfps.example.com/atlas.pdf", rec.ParsedMarkdown)

	require.Contains(t, st.embedded, st.rfpID)
	assert.Len(t, st.embedded[st.rfpID], 8)
}

func TestParseRFPDefaults(t *testing.T) {
	st := &mockRFPStore{rfpID: uuid.New()}
	def := uuid.New()
	p, err := NewParser(st, embeddingtest.NewFake(8), &def, log.NewNop())
	require.NoError(t, err)

	_, err = p.ParseRFP(context.Background(), ParseInput{DocumentURL: "file:///tmp/rfp.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Client", st.insertedRFP.ClientName)
	assert.Equal(t, "Untitled Project", st.insertedRFP.ProjectTitle)
	assert.Nil(t, st.insertedRFP.RFPNumber)
}

func testRFP() *store.RFP {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return &store.RFP{
		ID:               uuid.New(),
		TenantID:         uuid.New(),
		ClientName:       "Acme Corp",
		ProjectTitle:     "Atlas Migration",
		ProjectStartDate: &start,
		ParsedRequirements: map[string]any{
			"summary": "RFP for Atlas Migration from Acme Corp",
		},
	}
}

func testResource(name string, rate *float64, contactName, contactEmail *string) store.InternalResource {
	return store.InternalResource{
		ID:                   uuid.New(),
		Name:                 name,
		ResourceType:         "staff",
		Description:          name + " does things",
		HourlyRate:           rate,
		ApprovalContactName:  contactName,
		ApprovalContactEmail: contactEmail,
	}
}

func TestGenerate(t *testing.T) {
	rate := 120.0
	contactName := "Dana Lee"
	contactEmail := "dana@example.com"

	rfp := testRFP()
	st := &mockRFPStore{rfp: rfp, proposalID: uuid.New()}
	sr := &mockSearcher{resources: []store.InternalResource{
		testResource("Alice", &rate, &contactName, &contactEmail),
		testResource("Forklift 7", nil, nil, nil),
	}}

	g, err := NewGenerator(st, sr, log.NewNop())
	require.NoError(t, err)

	var steps []float64
	summary, err := g.Generate(context.Background(), rfp.ID, func(p, total float64, _ string) {
		assert.Equal(t, 100.0, total)
		steps = append(steps, p)
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 30, 50, 70, 100}, steps)
	assert.Equal(t, "RFP for Atlas Migration from Acme Corp", sr.resourceQuery.Query)
	assert.Equal(t, candidateLimit, sr.resourceQuery.MaxResults)
	assert.Equal(t, candidateLimit, sr.experienceQuery.MaxResults)

	// Only the rated resource contributes to cost.
	assert.Equal(t, 120.0*AllocationHours, st.proposal.TotalCost)
	assert.Equal(t, "Proposal for Atlas Migration", st.proposal.Title)
	assert.Equal(t, "draft", st.proposal.Status)
	assert.Len(t, st.proposal.ResourceIDs, 2)

	require.Len(t, st.validations, 2)
	v := st.validations[0]
	assert.Equal(t, "Can Alice be allocated to project 'Atlas Migration' starting 2026-10-01?", v.ValidationQuestion)
	assert.Equal(t, "Dana Lee", v.RecipientName)
	assert.Equal(t, "dana@example.com", v.RecipientEmail)
	assert.Equal(t, "internal_resource", v.EntityType)
	assert.NotContains(t, v.CurrentInformation, "similarity")

	// Missing approval contact falls back to defaults.
	assert.Equal(t, "Manager", st.validations[1].RecipientName)
	assert.Equal(t, "manager@example.com", st.validations[1].RecipientEmail)

	expected := fmt.Sprintf(
		"Created proposal %s with 2 resources requiring validation. Total estimated cost: $19,200.00",
		st.proposalID)
	assert.Equal(t, expected, summary)
}

func TestGenerateNoResources(t *testing.T) {
	rfp := testRFP()
	st := &mockRFPStore{rfp: rfp, proposalID: uuid.New()}
	g, err := NewGenerator(st, &mockSearcher{}, log.NewNop())
	require.NoError(t, err)

	summary, err := g.Generate(context.Background(), rfp.ID, nil)
	require.NoError(t, err)

	assert.Empty(t, st.validations)
	assert.Zero(t, st.proposal.TotalCost)
	assert.Contains(t, summary, "with 0 resources")
	assert.Contains(t, summary, "$0.00")
}

func TestGenerateQueryFallback(t *testing.T) {
	rfp := testRFP()
	rfp.ParsedRequirements = nil
	st := &mockRFPStore{rfp: rfp, proposalID: uuid.New()}
	sr := &mockSearcher{}
	g, err := NewGenerator(st, sr, log.NewNop())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), rfp.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Atlas Migration Acme Corp", sr.resourceQuery.Query)
}

func TestGenerateMissingRFP(t *testing.T) {
	st := &mockRFPStore{getErr: fmt.Errorf("rfp: %w", store.ErrNotFound)}
	g, err := NewGenerator(st, &mockSearcher{}, log.NewNop())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenerateSearchFailure(t *testing.T) {
	rfp := testRFP()
	st := &mockRFPStore{rfp: rfp}
	sr := &mockSearcher{resourceErr: errors.New("backend down")}
	g, err := NewGenerator(st, sr, log.NewNop())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), rfp.ID, nil)
	require.ErrorContains(t, err, "backend down")
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:          "0.00",
		999.5:      "999.50",
		1000:       "1,000.00",
		19200:      "19,200.00",
		1234567.89: "1,234,567.89",
		-4200:      "-4,200.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatAmount(in), "formatAmount(%v)", in)
	}
}
