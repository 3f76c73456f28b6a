package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phr/phr/pkg/apperr"
)

func newTestService() *Service {
	svc := NewService(NewPatientRepoMem(), NewProviderRepoMem())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRegisterPatient(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p := &Patient{ID: "alice", Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, svc.RegisterPatient(ctx, p))
	assert.False(t, p.CreatedAt.IsZero())

	got, err := svc.patients.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestRegisterPatient_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RegisterPatient(ctx, &Patient{ID: "alice", Name: "Alice"}))
	err := svc.RegisterPatient(ctx, &Patient{ID: "alice", Name: "Alice Again"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterPatient_PrincipalAlreadyProvider(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-bob", Name: "Dr Bob"}))
	err := svc.RegisterPatient(ctx, &Patient{ID: "dr-bob", Name: "Bob"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterPatient_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	err := svc.RegisterPatient(ctx, &Patient{ID: "alice"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	err = svc.RegisterPatient(ctx, &Patient{Name: "No Principal"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRegisterProvider_StartsUnverified(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p := &Provider{ID: "dr-bob", Name: "Dr Bob", Verified: true}
	require.NoError(t, svc.RegisterProvider(ctx, p))
	assert.False(t, p.Verified)
}

func TestRegisterProvider_PrincipalAlreadyPatient(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RegisterPatient(ctx, &Patient{ID: "alice", Name: "Alice"}))
	err := svc.RegisterProvider(ctx, &Provider{ID: "alice", Name: "Dr Alice"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestResolve(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RegisterPatient(ctx, &Patient{ID: "alice", Name: "Alice"}))
	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-bob", Name: "Dr Bob"}))

	res, err := svc.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.IsPatient())
	assert.False(t, res.IsProvider())

	res, err = svc.Resolve(ctx, "dr-bob")
	require.NoError(t, err)
	assert.True(t, res.IsProvider())

	res, err = svc.Resolve(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, res.Registered())
}

func TestGetProfile_Unregistered(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrUnregistered)
}

func TestListProviders_Paged(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-a", Name: "A"}))
	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-b", Name: "B"}))
	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-c", Name: "C"}))

	items, total, err := svc.ListProviders(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "dr-a", items[0].ID.String())

	items, _, err = svc.ListProviders(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "dr-c", items[0].ID.String())
}

func TestCounts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RegisterPatient(ctx, &Patient{ID: "alice", Name: "Alice"}))
	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-bob", Name: "Dr Bob"}))
	require.NoError(t, svc.RegisterProvider(ctx, &Provider{ID: "dr-carol", Name: "Dr Carol"}))

	patients, providers, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, patients)
	assert.Equal(t, 2, providers)
}
