package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkbio/internal/events"
	"linkbio/internal/infra"
	"linkbio/internal/infra/dbtest"
	"linkbio/internal/metrics"
	"linkbio/internal/models/db_models"
	"linkbio/internal/repositories"
	mem "linkbio/pkg/memcache"
	"linkbio/pkg/utils"
)

type fakeGateway struct {
	customerCode string
	customerErr  error
	initErr      error
	initCalls    int
	lastInit     infra.InitializeRequest
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	if g.customerErr != nil {
		return "", g.customerErr
	}
	return g.customerCode, nil
}

func (g *fakeGateway) InitializeTransaction(_ context.Context, req infra.InitializeRequest) (*infra.Checkout, error) {
	g.initCalls++
	g.lastInit = req
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &infra.Checkout{AuthorizationURL: "https://checkout.test/" + req.Reference, Reference: req.Reference}, nil
}

type publishedEvent struct {
	key   string
	event events.SubscriptionEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, evt events.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key: key, event: evt})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.key)
	}
	return keys
}

type recordingNotifier struct {
	notified    []string
	resetTokens map[string]string
}

func (n *recordingNotifier) NotifyDowngrade(_ context.Context, user *db_models.User, _ string) error {
	n.notified = append(n.notified, user.Email)
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, user *db_models.User, token string) error {
	if n.resetTokens == nil {
		n.resetTokens = map[string]string{}
	}
	n.resetTokens[user.Email] = token
	return nil
}

// testEnv wires the billing services over a fresh SQLite database.
type testEnv struct {
	db        *gorm.DB
	now       time.Time
	cache     *mem.MemoryStore
	gateway   *fakeGateway
	publisher *recordingPublisher
	notifier  *recordingNotifier

	users    repositories.UserRepository
	plans    repositories.PlanRepository
	payments repositories.PaymentRepository
	subs     repositories.SubscriptionRepository
	links    repositories.LinkRepository

	entitlements *entitlementService
	payment      *paymentService
	subscription *subscriptionService
	sweep        *sweepService
}

const testSecret = "sk_test_secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	log := zap.NewNop()
	m := metrics.NewBillingMetrics(prometheus.NewRegistry())
	uow := infra.NewUnitOfWork(db)

	env := &testEnv{
		db:        db,
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		cache:     mem.NewMemoryStore(),
		gateway:   &fakeGateway{customerCode: "CUS_test"},
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
		users:     repositories.NewUserRepository(db),
		plans:     repositories.NewPlanRepository(db),
		payments:  repositories.NewPaymentRepository(db),
		subs:      repositories.NewSubscriptionRepository(db),
		links:     repositories.NewLinkRepository(db),
	}
	clock := func() time.Time { return env.now }

	env.entitlements = NewEntitlementService(env.users, env.subs, env.cache, log).(*entitlementService)
	env.entitlements.now = clock

	env.payment = NewPaymentService(
		PaymentConfig{SecretKey: testSecret, CallbackURL: "http://localhost/accounts/me"},
		uow, env.users, env.plans, env.payments, env.subs,
		env.gateway, env.entitlements, env.publisher, m, log,
	).(*paymentService)
	env.payment.now = clock

	env.subscription = NewSubscriptionService(uow, env.subs, env.entitlements, env.publisher, m, log).(*subscriptionService)
	env.subscription.now = clock

	env.sweep = NewSweepService(uow, env.subs, env.users, env.entitlements, env.publisher, env.notifier, m, log).(*sweepService)

	return env
}

func (e *testEnv) seedPendingPayment(t *testing.T, user *db_models.User, plan *db_models.Plan, reference string) *db_models.Payment {
	t.Helper()
	payment := &db_models.Payment{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Status:    db_models.PaymentStatusPending,
		Reference: reference,
	}
	if err := e.payments.Create(context.Background(), payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

func (e *testEnv) seedSubscription(t *testing.T, user *db_models.User, plan *db_models.Plan, status db_models.SubscriptionStatus, start, end time.Time) *db_models.Subscription {
	t.Helper()
	sub := &db_models.Subscription{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Status:    status,
		StartDate: utils.UnixPtr(start),
		EndDate:   utils.UnixPtr(end),
	}
	if err := e.subs.Save(context.Background(), sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub
}

func (e *testEnv) reloadSubscription(t *testing.T, user *db_models.User, plan *db_models.Plan) *db_models.Subscription {
	t.Helper()
	sub, err := e.subs.FindByUserAndPlan(context.Background(), user.ID, plan.ID)
	if err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	return sub
}
