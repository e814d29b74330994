package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"linkbio/internal/infra/dbtest"
	"linkbio/internal/models/db_models"
	"linkbio/pkg/utils"
)

func TestPaymentRepository_MarkSuccessIsConditional(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "ada")
	plan := dbtest.SeedPlan(t, db, "Premium", 500000)

	repo := NewPaymentRepository(db)
	payment := &db_models.Payment{UserID: user.ID, PlanID: plan.ID, Amount: plan.Price, Reference: "r1"}
	require.NoError(t, repo.Create(ctx, payment))

	n, err := repo.MarkSuccess(ctx, payment.ID, datatypes.JSON(`{"reference":"r1"}`))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.MarkSuccess(ctx, payment.ID, datatypes.JSON(`{"reference":"r1"}`))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	got, err := repo.FindByReference(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db_models.PaymentStatusSuccess, got.Status)
	assert.JSONEq(t, `{"reference":"r1"}`, string(got.Receipt))
}

func TestPaymentRepository_FindByReferenceMissing(t *testing.T) {
	db := dbtest.Open(t)

	got, err := NewPaymentRepository(db).FindByReference(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPaymentRepository_ReferenceIsUnique(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "ada")
	plan := dbtest.SeedPlan(t, db, "Premium", 500000)
	repo := NewPaymentRepository(db)

	require.NoError(t, repo.Create(ctx, &db_models.Payment{UserID: user.ID, PlanID: plan.ID, Amount: 1, Reference: "dup"}))
	assert.Error(t, repo.Create(ctx, &db_models.Payment{UserID: user.ID, PlanID: plan.ID, Amount: 1, Reference: "dup"}))
}

func TestSubscriptionRepository_ListLapsedAndMarkExpired(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	plan := dbtest.SeedPlan(t, db, "Premium", 500000)
	now := time.Now()
	repo := NewSubscriptionRepository(db)

	old := now.Add(-10 * utils.Day)
	recent := now.Add(-3 * utils.Day)
	future := now.Add(10 * utils.Day)

	mk := func(name string, status db_models.SubscriptionStatus, end time.Time) *db_models.Subscription {
		user := dbtest.SeedUser(t, db, name)
		sub := &db_models.Subscription{UserID: user.ID, PlanID: plan.ID, Status: status, EndDate: utils.UnixPtr(end)}
		require.NoError(t, repo.Save(ctx, sub))
		return sub
	}

	lapsedActive := mk("a", db_models.SubStatusActive, old)
	lapsedCancelled := mk("b", db_models.SubStatusCancelled, old)
	mk("c", db_models.SubStatusActive, recent)
	mk("d", db_models.SubStatusActive, future)
	mk("e", db_models.SubStatusExpired, old)

	cutoff := now.Add(-7 * utils.Day).Unix()
	lapsed, err := repo.ListLapsedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, lapsed, 2)

	ids := []uuid.UUID{lapsed[0].ID, lapsed[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{lapsedActive.ID, lapsedCancelled.ID}, ids)

	n, err := repo.MarkExpired(ctx, ids, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	lapsed, err = repo.ListLapsedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Empty(t, lapsed)
}

func TestSubscriptionRepository_MarkExpiredSkipsRenewedRows(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "ada")
	plan := dbtest.SeedPlan(t, db, "Premium", 500000)
	now := time.Now()
	repo := NewSubscriptionRepository(db)

	sub := &db_models.Subscription{
		UserID:  user.ID,
		PlanID:  plan.ID,
		Status:  db_models.SubStatusCancelled,
		EndDate: utils.UnixPtr(now.Add(-10 * utils.Day)),
	}
	require.NoError(t, repo.Save(ctx, sub))

	cutoff := now.Add(-7 * utils.Day).Unix()
	lapsed, err := repo.ListLapsedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, lapsed, 1)

	// A payment lands between the listing and the update.
	sub.Status = db_models.SubStatusActive
	sub.StartDate = utils.UnixPtr(now)
	sub.EndDate = utils.UnixPtr(now.Add(30 * utils.Day))
	require.NoError(t, repo.Save(ctx, sub))

	n, err := repo.MarkExpired(ctx, []uuid.UUID{lapsed[0].ID}, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	got, err := repo.FindByUserAndPlan(ctx, user.ID, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db_models.SubStatusActive, got.Status)
}

func TestPlanRepository_FeaturesRoundTrip(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewPlanRepository(db)

	plan := &db_models.Plan{Name: "Pro", Price: 900000, Features: db_models.FeatureList{"Unlimited links", "Premium themes"}}
	require.NoError(t, repo.Create(ctx, plan))

	got, err := repo.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db_models.FeatureList{"Unlimited links", "Premium themes"}, got.Features)
}

func TestSubscriptionRepository_OneRowPerUserAndPlan(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "ada")
	plan := dbtest.SeedPlan(t, db, "Premium", 500000)
	repo := NewSubscriptionRepository(db)

	require.NoError(t, repo.Save(ctx, &db_models.Subscription{UserID: user.ID, PlanID: plan.ID, Status: db_models.SubStatusActive}))
	assert.Error(t, repo.Save(ctx, &db_models.Subscription{UserID: user.ID, PlanID: plan.ID, Status: db_models.SubStatusActive}))

	got, err := repo.FindByUserAndPlan(ctx, user.ID, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db_models.SubStatusActive, got.Status)
}

func TestPlanRepository_ListOrderedByPriceAndReferences(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	expensive := dbtest.SeedPlan(t, db, "Pro", 900000)
	cheap := dbtest.SeedPlan(t, db, "Premium", 500000)
	repo := NewPlanRepository(db)

	plans, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, cheap.ID, plans[0].ID)
	assert.Equal(t, db_models.FeatureList{"Unlimited links", "Premium themes"}, plans[0].Features)

	refs, err := repo.CountReferences(ctx, expensive.ID)
	require.NoError(t, err)
	assert.Zero(t, refs)

	user := dbtest.SeedUser(t, db, "ada")
	require.NoError(t, NewPaymentRepository(db).Create(ctx, &db_models.Payment{UserID: user.ID, PlanID: expensive.ID, Amount: 1, Reference: "x"}))
	refs, err = repo.CountReferences(ctx, expensive.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, refs)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "ada")
	plan := dbtest.SeedPlan(t, db, "Premium", 500000)

	links := NewLinkRepository(db)
	link := &db_models.Link{UserID: user.ID, Title: "site", URL: "https://example.com"}
	require.NoError(t, links.Create(ctx, link))
	require.NoError(t, links.RecordClick(ctx, &db_models.Click{LinkID: link.ID, IPAddress: "127.0.0.1"}))
	require.NoError(t, NewSubscriptionRepository(db).Save(ctx, &db_models.Subscription{UserID: user.ID, PlanID: plan.ID, Status: db_models.SubStatusActive}))

	users := NewUserRepository(db)
	require.NoError(t, users.Delete(ctx, user.ID))

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var count int64
	require.NoError(t, db.Model(&db_models.Link{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&db_models.Click{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&db_models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserRepository_ProfileViewsAndAdmin(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, db, "ada")
	users := NewUserRepository(db)

	require.NoError(t, users.IncrementProfileViews(ctx, user.ID))
	require.NoError(t, users.IncrementProfileViews(ctx, user.ID))
	require.NoError(t, users.SetAdmin(ctx, user.ID, true))

	got, err := users.FindByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.EqualValues(t, 2, got.ProfileViews)
	assert.True(t, got.IsAdmin)
}
