package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phr/phr/pkg/principal"
)

func TestProviderRepoMem_ListPagesWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewProviderRepoMem()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &Provider{
			ID:   principal.Principal(fmt.Sprintf("dr-%d", i)),
			Name: fmt.Sprintf("Doctor %d", i),
		}))
	}

	page, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, page, 2)
	require.Equal(t, principal.Principal("dr-0"), page[0].ID)
	require.Equal(t, principal.Principal("dr-1"), page[1].ID)

	page, total, err = repo.List(ctx, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, page, 1)
	require.Equal(t, principal.Principal("dr-4"), page[0].ID)

	// Window entirely past the end yields an empty page, not an error.
	page, total, err = repo.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Empty(t, page)
}
