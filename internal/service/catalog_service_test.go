package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDurations(t, 25, 100)

	err := env.durations.Create(ctx, testutil.NewTestDuration(100))
	assert.True(t, domain.IsModelError(err, domain.ErrDurationAlreadyExists))
	err = env.durations.Create(ctx, testutil.NewTestDuration(0))
	assert.True(t, domain.IsModelError(err, domain.ErrInvalidDuration))

	require.NoError(t, env.durations.SetActive(ctx, 25, false))
	active, err := env.durations.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(100), active[0].ID)

	alice := env.addCollaborator(t, "alice")
	leaf := env.addTask(t, nil, "LEAF")
	env.logTime(t, alice, leaf, testutil.Day(2025, 1, 2), 100)

	err = env.durations.Remove(ctx, 100)
	assert.True(t, domain.IsModelError(err, domain.ErrDurationInUse))
	require.NoError(t, env.durations.Remove(ctx, 25))

	all, err := env.durations.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCollaboratorService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addDurations(t, 100)
	alice := env.addCollaborator(t, "alice")
	assert.NotEmpty(t, alice.ID)

	dup := testutil.NewTestCollaborator("Alice", "Again", testutil.WithLogin(" alice "))
	dup.ID = ""
	err := env.collaborators.Create(ctx, dup)
	assert.True(t, domain.IsModelError(err, domain.ErrLoginAlreadyInUse))

	blank := testutil.NewTestCollaborator("No", "Login", testutil.WithLogin("  "))
	err = env.collaborators.Create(ctx, blank)
	assert.True(t, domain.IsModelError(err, domain.ErrLoginRequired))

	bob := env.addCollaborator(t, "bob")
	bob.Login = "alice"
	err = env.collaborators.Update(ctx, bob)
	assert.True(t, domain.IsModelError(err, domain.ErrLoginAlreadyInUse))

	alice.FirstName = "Alicia"
	require.NoError(t, env.collaborators.Update(ctx, alice), "keeping its own login is allowed")
	got, err := env.collaborators.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.FirstName)

	leaf := env.addTask(t, nil, "LEAF")
	env.logTime(t, alice, leaf, testutil.Day(2025, 1, 2), 100)
	err = env.collaborators.Remove(ctx, alice.ID)
	assert.True(t, domain.IsModelError(err, domain.ErrCollaboratorHasContributions))

	require.NoError(t, env.collaborators.Remove(ctx, bob.ID))
	all, err := env.collaborators.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "alice", all[0].Login)
}
