package experience

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proposalkb/proposalkb/internal/embedding/embeddingtest"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/store"
)

type mockInserter struct {
	last store.ExperienceRecord
	id   uuid.UUID
	err  error
}

func (m *mockInserter) InsertExperience(_ context.Context, rec store.ExperienceRecord) (uuid.UUID, error) {
	m.last = rec
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return m.id, nil
}

func newTestRecorder(t *testing.T, inserter *mockInserter, defaultTenant *uuid.UUID) *Recorder {
	t.Helper()
	r, err := NewRecorder(inserter, embeddingtest.NewFake(8), defaultTenant, log.NewNop())
	require.NoError(t, err)
	return r
}

func TestNewRecorderValidation(t *testing.T) {
	fake := embeddingtest.NewFake(8)

	_, err := NewRecorder(nil, fake, nil, log.NewNop())
	require.Error(t, err)

	_, err = NewRecorder(&mockInserter{}, nil, nil, log.NewNop())
	require.Error(t, err)
}

func TestRecordEmptyDescription(t *testing.T) {
	r := newTestRecorder(t, &mockInserter{}, nil)

	_, err := r.Record(context.Background(), Input{})
	require.ErrorIs(t, err, ErrEmptyDescription)
}

func TestRecordDefaults(t *testing.T) {
	ins := &mockInserter{id: uuid.New()}
	r := newTestRecorder(t, ins, nil)

	id, err := r.Record(context.Background(), Input{
		Description: "Kubernetes migration projects need dedicated platform engineers",
	})
	require.NoError(t, err)
	assert.Equal(t, ins.id, id)

	rec := ins.last
	assert.Equal(t, SourceAIInference, rec.SourceType)
	assert.Equal(t, DefaultConfidence, rec.ConfidenceScore)
	assert.NotEmpty(t, rec.Keywords, "keywords should be auto-extracted")
	assert.Len(t, rec.Embedding, 8)
	assert.Nil(t, rec.TenantID)
	assert.Nil(t, rec.EntityType)
	assert.Nil(t, rec.SourceID)
}

func TestRecordReviewGate(t *testing.T) {
	ins := &mockInserter{id: uuid.New()}
	r := newTestRecorder(t, ins, nil)

	_, err := r.Record(context.Background(), Input{
		Description:    "Alice prefers morning standups",
		RequiresReview: true,
	})
	require.NoError(t, err)
	assert.False(t, ins.last.IsValidated)

	_, err = r.Record(context.Background(), Input{
		Description:    "Alice prefers morning standups",
		RequiresReview: false,
	})
	require.NoError(t, err)
	assert.True(t, ins.last.IsValidated)
}

func TestRecordExplicitFields(t *testing.T) {
	ins := &mockInserter{id: uuid.New()}
	r := newTestRecorder(t, ins, nil)

	tenant := uuid.New()
	entity := uuid.New()
	_, err := r.Record(context.Background(), Input{
		TenantID:    tenant.String(),
		Description: "Bob rolls off project Atlas at the end of the quarter",
		Keywords:    []string{"bob", "atlas"},
		EntityType:  "internal_resource",
		EntityID:    entity.String(),
		EntityName:  "Bob",
		SourceType:  SourceValidationResponse,
		SourceID:    "val-123",
		Confidence:  0.95,
	})
	require.NoError(t, err)

	rec := ins.last
	require.NotNil(t, rec.TenantID)
	assert.Equal(t, tenant, *rec.TenantID)
	require.NotNil(t, rec.EntityID)
	assert.Equal(t, entity, *rec.EntityID)
	assert.Equal(t, []string{"bob", "atlas"}, rec.Keywords)
	assert.Equal(t, SourceValidationResponse, rec.SourceType)
	assert.Equal(t, 0.95, rec.ConfidenceScore)
	require.NotNil(t, rec.SourceID)
	assert.Equal(t, "val-123", *rec.SourceID)
}

func TestRecordTenantFallback(t *testing.T) {
	def := uuid.New()
	ins := &mockInserter{id: uuid.New()}
	r := newTestRecorder(t, ins, &def)

	_, err := r.Record(context.Background(), Input{Description: "fallback tenant applies"})
	require.NoError(t, err)
	require.NotNil(t, ins.last.TenantID)
	assert.Equal(t, def, *ins.last.TenantID)
}

func TestRecordInvalidIDs(t *testing.T) {
	r := newTestRecorder(t, &mockInserter{}, nil)

	_, err := r.Record(context.Background(), Input{Description: "x", TenantID: "not-a-uuid"})
	require.Error(t, err)

	_, err = r.Record(context.Background(), Input{Description: "x", EntityID: "nope"})
	require.Error(t, err)
}

func TestRecordEmbedFailure(t *testing.T) {
	fake := embeddingtest.NewFake(8)
	fake.Err = errors.New("quota exceeded")

	r, err := NewRecorder(&mockInserter{}, fake, nil, log.NewNop())
	require.NoError(t, err)

	_, err = r.Record(context.Background(), Input{Description: "x"})
	require.ErrorContains(t, err, "quota exceeded")
}

func TestRecordInsertFailure(t *testing.T) {
	ins := &mockInserter{err: errors.New("db down")}
	r := newTestRecorder(t, ins, nil)

	_, err := r.Record(context.Background(), Input{Description: "x"})
	require.ErrorContains(t, err, "db down")
}
