package portal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phr/phr/internal/domain/consent"
	"github.com/phr/phr/internal/domain/identity"
	"github.com/phr/phr/internal/domain/records"
)

const day = 24 * time.Hour

// stack is the full in-memory wiring the portal projects over.
type stack struct {
	portal   *Service
	identity *identity.Service
	records  *records.Service
	consent  *consent.Service
	clock    time.Time
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	recRepo := records.NewRepoMem()
	s.identity = identity.NewService(identity.NewPatientRepoMem(), identity.NewProviderRepoMem())
	s.consent = consent.NewService(consent.NewRepoMem(), recRepo, s.identity, 30*day)
	s.consent.SetClock(func() time.Time { return s.clock })
	s.records = records.NewService(recRepo, s.identity)
	s.records.SetAuthorizer(s.consent)
	s.records.SetCascade(s.consent)
	s.portal = NewService(recRepo, s.consent, s.identity)

	ctx := context.Background()
	require.NoError(t, s.identity.RegisterPatient(ctx, &identity.Patient{ID: "alice", Name: "Alice"}))
	require.NoError(t, s.identity.RegisterProvider(ctx, &identity.Provider{ID: "dr-bob", Name: "Dr Bob"}))
	return s
}

func (s *stack) addRecord(t *testing.T, title string) *records.HealthRecord {
	t.Helper()
	rec, err := s.records.Create(context.Background(), "alice", records.CreateInput{
		Title:      title,
		RecordType: "lab_result",
	})
	require.NoError(t, err)
	return rec
}

func (s *stack) shareApproved(t *testing.T, recordIDs ...uuid.UUID) *consent.ShareRequest {
	t.Helper()
	ctx := context.Background()
	req, err := s.consent.RequestShare(ctx, "dr-bob", consent.RequestInput{
		PatientID: "alice",
		RecordIDs: recordIDs,
	})
	require.NoError(t, err)
	approved, err := s.consent.Approve(ctx, "alice", req.ID)
	require.NoError(t, err)
	return approved
}

func TestMyRecords(t *testing.T) {
	s := newStack(t)
	s.addRecord(t, "one")
	s.addRecord(t, "two")

	items, total, err := s.portal.MyRecords(context.Background(), "alice", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = s.portal.MyRecords(context.Background(), "dr-bob", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
}

func TestSharedWithMe(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	shared := s.addRecord(t, "shared")
	s.addRecord(t, "private")
	s.shareApproved(t, shared.ID)

	items, err := s.portal.SharedWithMe(ctx, "dr-bob")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, shared.ID, items[0].ID)
}

func TestSharedWithMe_LapsedGrantFilteredOut(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	rec := s.addRecord(t, "shared")
	s.shareApproved(t, rec.ID)

	items, err := s.portal.SharedWithMe(ctx, "dr-bob")
	require.NoError(t, err)
	require.Len(t, items, 1)

	s.clock = s.clock.Add(31 * day)

	items, err = s.portal.SharedWithMe(ctx, "dr-bob")
	require.NoError(t, err)
	assert.Empty(t, items)

	// The lapse observation also scrubbed the share list.
	got, _, err := s.records.ListByOwner(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].SharedWith)
}

func TestSharedWithMe_RevokedGrantFilteredOut(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	rec := s.addRecord(t, "shared")
	s.shareApproved(t, rec.ID)

	require.NoError(t, s.consent.Revoke(ctx, "alice", rec.ID, "dr-bob"))

	items, err := s.portal.SharedWithMe(ctx, "dr-bob")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMyShareRequests_BothSides(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	rec := s.addRecord(t, "shared")
	req := s.shareApproved(t, rec.ID)

	forPatient, err := s.portal.MyShareRequests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, forPatient, 1)
	assert.Equal(t, req.ID, forPatient[0].ID)

	forProvider, err := s.portal.MyShareRequests(ctx, "dr-bob")
	require.NoError(t, err)
	require.Len(t, forProvider, 1)

	none, err := s.portal.MyShareRequests(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPlatformStats(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	rec := s.addRecord(t, "one")
	s.addRecord(t, "two")

	_, err := s.consent.RequestShare(ctx, "dr-bob", consent.RequestInput{
		PatientID: "alice",
		RecordIDs: []uuid.UUID{rec.ID},
	})
	require.NoError(t, err)

	stats, err := s.portal.PlatformStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		TotalRecords:    2,
		TotalPatients:   1,
		TotalProviders:  1,
		PendingRequests: 1,
	}, stats)
}

func TestDeleteCascade_VisibleThroughPortal(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	rec := s.addRecord(t, "doomed")
	s.shareApproved(t, rec.ID)

	require.NoError(t, s.records.Delete(ctx, "alice", rec.ID))

	items, err := s.portal.SharedWithMe(ctx, "dr-bob")
	require.NoError(t, err)
	assert.Empty(t, items)

	reqs, err := s.portal.MyShareRequests(ctx, "dr-bob")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].RecordIDs)
}
