package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_SyncProfile(t *testing.T) {
	d := newDeps(t, nil, nil)
	ctx := context.Background()

	_, err := d.users.Get(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, d.users.SyncProfile(ctx, "u1", "Ann", "ann@example.com"))
	require.NoError(t, d.users.SyncProfile(ctx, "u1", "Ann B", "ann@example.com"))

	u, err := d.users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann B", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
}
