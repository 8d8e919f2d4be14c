package killswitch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) IsActive(context.Context) (bool, error)  { return false, errors.New("store down") }
func (failingStore) Status(context.Context) (Status, error)  { return Status{}, errors.New("store down") }
func (failingStore) Activate(context.Context, string, time.Time) error {
	return errors.New("store down")
}
func (failingStore) Deactivate(context.Context, string, time.Time) error {
	return errors.New("store down")
}

func TestKillSwitch_DefaultsToInactive(t *testing.T) {
	ks := New(NewMemoryStore())
	assert.False(t, ks.IsActive(context.Background()))
}

func TestKillSwitch_ActivateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	ks := New(NewMemoryStore())
	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ks.Activate(ctx, "manual halt", now))
	assert.True(t, ks.IsActive(ctx))

	status := ks.Status(ctx)
	assert.True(t, status.Active)
	assert.Equal(t, "manual halt", status.Reason)
	require.NotNil(t, status.ActivatedAt)
	assert.True(t, status.ActivatedAt.Equal(now))

	require.NoError(t, ks.Deactivate(ctx, "all clear", now.Add(time.Hour)))
	assert.False(t, ks.IsActive(ctx))
}

func TestKillSwitch_DefaultReasons(t *testing.T) {
	ctx := context.Background()
	ks := New(NewMemoryStore())
	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ks.Activate(ctx, "", now))
	assert.Equal(t, "Manual activation", ks.Status(ctx).Reason)

	require.NoError(t, ks.Deactivate(ctx, "", now))
	assert.Equal(t, "Manual deactivation", ks.Status(ctx).Reason)
}

func TestKillSwitch_FailsClosedOnStoreError(t *testing.T) {
	ctx := context.Background()
	ks := New(failingStore{})

	assert.True(t, ks.IsActive(ctx), "a backing-store failure must be treated as halted")
	assert.True(t, ks.Status(ctx).Active, "status must also fail closed")
}
