package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/events"
	"linkbio/internal/infra/dbtest"
	"linkbio/internal/models/db_models"
	"linkbio/pkg/utils"
)

func TestSweep_ExpiresOnlyPastGrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := dbtest.SeedPlan(t, env.db, "Premium", 500000)
	now := env.now

	lapsed := dbtest.SeedUser(t, env.db, "lapsed")
	env.seedSubscription(t, lapsed, plan, db_models.SubStatusActive, now.Add(-40*utils.Day), now.Add(-10*utils.Day))

	cancelled := dbtest.SeedUser(t, env.db, "cancelled")
	env.seedSubscription(t, cancelled, plan, db_models.SubStatusCancelled, now.Add(-38*utils.Day), now.Add(-8*utils.Day))

	inGrace := dbtest.SeedUser(t, env.db, "grace")
	env.seedSubscription(t, inGrace, plan, db_models.SubStatusActive, now.Add(-33*utils.Day), now.Add(-3*utils.Day))

	boundary := dbtest.SeedUser(t, env.db, "boundary")
	env.seedSubscription(t, boundary, plan, db_models.SubStatusActive, now.Add(-37*utils.Day), now.Add(-7*utils.Day))

	running := dbtest.SeedUser(t, env.db, "running")
	env.seedSubscription(t, running, plan, db_models.SubStatusActive, now, now.Add(30*utils.Day))

	n, err := env.sweep.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, db_models.SubStatusExpired, env.reloadSubscription(t, lapsed, plan).Status)
	assert.Equal(t, db_models.SubStatusExpired, env.reloadSubscription(t, cancelled, plan).Status)
	assert.Equal(t, db_models.SubStatusActive, env.reloadSubscription(t, inGrace, plan).Status)
	assert.Equal(t, db_models.SubStatusActive, env.reloadSubscription(t, boundary, plan).Status)
	assert.Equal(t, db_models.SubStatusActive, env.reloadSubscription(t, running, plan).Status)

	assert.ElementsMatch(t, []string{lapsed.Email, cancelled.Email}, env.notifier.notified)
	assert.Equal(t, []string{events.SubscriptionExpired, events.SubscriptionExpired}, env.publisher.keys())

	again, err := env.sweep.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Len(t, env.notifier.notified, 2)
}

func TestSweep_EmptySelection(t *testing.T) {
	env := newTestEnv(t)

	n, err := env.sweep.Sweep(context.Background(), env.now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, env.publisher.keys())
}

func TestSweep_DowngradedUserResolvesToFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, env.db, "ada")
	plan := dbtest.SeedPlan(t, env.db, "Premium", 500000)
	env.seedSubscription(t, user, plan, db_models.SubStatusActive, env.now.Add(-45*utils.Day), env.now.Add(-15*utils.Day))

	_, err := env.sweep.Sweep(ctx, env.now)
	require.NoError(t, err)

	ent, err := env.entitlements.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, AccountTypeFree, ent.AccountType)
	assert.False(t, ent.InGrace)
}
