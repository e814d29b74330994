package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkbio/internal/api/controllers"
	"linkbio/internal/events"
	"linkbio/internal/infra"
	"linkbio/internal/infra/dbtest"
	"linkbio/internal/metrics"
	"linkbio/internal/models/db_models"
	"linkbio/internal/repositories"
	"linkbio/internal/services"
	mem "linkbio/pkg/memcache"
	"linkbio/pkg/utils"
)

const webhookSecret = "sk_test_router"

type stubGateway struct{}

func (stubGateway) CreateCustomer(context.Context, string, string) (string, error) {
	return "CUS_router", nil
}

func (stubGateway) InitializeTransaction(_ context.Context, req infra.InitializeRequest) (*infra.Checkout, error) {
	return &infra.Checkout{AuthorizationURL: "https://checkout.test/" + req.Reference}, nil
}

type mailbox struct {
	resetTokens map[string]string
}

func (m *mailbox) NotifyDowngrade(context.Context, *db_models.User, string) error { return nil }

func (m *mailbox) SendPasswordReset(_ context.Context, user *db_models.User, token string) error {
	m.resetTokens[user.Email] = token
	return nil
}

type apiEnv struct {
	engine   *gin.Engine
	payments repositories.PaymentRepository
	subs     repositories.SubscriptionRepository
	users    repositories.UserRepository
	plan     *db_models.Plan
	accounts services.AccountServiceInterface
	mail     *mailbox
}

func newAPIEnv(t *testing.T, secret string) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	log := zap.NewNop()
	registry := prometheus.NewRegistry()
	m := metrics.NewBillingMetrics(registry)
	uow := infra.NewUnitOfWork(db)
	tokens := utils.NewTokenIssuer("jwt-secret")
	publisher := events.NoopPublisher{}

	users := repositories.NewUserRepository(db)
	plans := repositories.NewPlanRepository(db)
	payments := repositories.NewPaymentRepository(db)
	subs := repositories.NewSubscriptionRepository(db)
	links := repositories.NewLinkRepository(db)

	mail := &mailbox{resetTokens: map[string]string{}}
	cache := mem.NewMemoryStore()

	entitlements := services.NewEntitlementService(users, subs, cache, log)
	accounts := services.NewAccountService(users, entitlements, tokens, mem.NewResetTokens(cache), mail, log)
	paymentSvc := services.NewPaymentService(
		services.PaymentConfig{SecretKey: secret},
		uow, users, plans, payments, subs, stubGateway{}, entitlements, publisher, m, log,
	)
	subscriptionSvc := services.NewSubscriptionService(uow, subs, entitlements, publisher, m, log)

	rt := Router{
		Account:  controllers.NewAccountController(accounts),
		Plan:     controllers.NewPlanController(services.NewPlanService(plans, log)),
		Payment:  controllers.NewPaymentController(paymentSvc, subscriptionSvc),
		Link:     controllers.NewLinkController(services.NewLinkService(links, users, entitlements, log)),
		Admin:    controllers.NewAdminController(accounts),
		Tokens:   tokens,
		Gatherer: registry,
		Log:      log,
	}

	return &apiEnv{
		engine:   rt.Engine(),
		payments: payments,
		subs:     subs,
		users:    users,
		plan:     dbtest.SeedPlan(t, db, "Premium", 500000),
		accounts: accounts,
		mail:     mail,
	}
}

func (e *apiEnv) do(method, path string, body interface{}, token string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/accounts/register", gin.H{
		"username": username, "email": username + "@example.com", "password": "secret1",
	}, "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/accounts/login", gin.H{"email": username + "@example.com", "password": "secret1"}, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Token
}

func TestSubscribeAndWebhookFlow(t *testing.T) {
	env := newAPIEnv(t, webhookSecret)
	token := env.registerAndLogin(t, "ada")

	w := env.do(http.MethodGet, "/subscribe/"+env.plan.ID.String(), nil, token, nil)
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	reference := strings.TrimPrefix(location, "https://checkout.test/")
	assert.True(t, strings.HasPrefix(reference, "user_"))

	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":500000}}`, reference))

	w = env.do(http.MethodPost, "/paystack-webhook", body, "", map[string]string{"x-paystack-signature": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sig := services.SignWebhookBody(webhookSecret, body)
	w = env.do(http.MethodPost, "/paystack-webhook", body, "", map[string]string{"x-paystack-signature": sig})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())

	// Replays are acknowledged.
	w = env.do(http.MethodPost, "/paystack-webhook", body, "", map[string]string{"x-paystack-signature": sig})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/accounts/me", nil, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Data struct {
			AccountType string `json:"account_type"`
			InGrace     bool   `json:"in_grace"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "Premium", me.Data.AccountType)
	assert.False(t, me.Data.InGrace)

	w = env.do(http.MethodPost, "/subscription/cancel", nil, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPost, "/subscription/cancel", nil, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/metrics", nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `linkbio_webhook_events_total{outcome="reconciled"} 1`)
}

func TestWebhook_MissingSecretIs500(t *testing.T) {
	env := newAPIEnv(t, "")
	body := []byte(`{"event":"charge.success","data":{"reference":"r1"}}`)

	w := env.do(http.MethodPost, "/paystack-webhook", body, "", map[string]string{
		"x-paystack-signature": services.SignWebhookBody("", body),
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhook_UnknownReferenceIsAcknowledged(t *testing.T) {
	env := newAPIEnv(t, webhookSecret)
	body := []byte(`{"event":"charge.success","data":{"reference":"missing"}}`)

	w := env.do(http.MethodPost, "/paystack-webhook", body, "", map[string]string{
		"x-paystack-signature": services.SignWebhookBody(webhookSecret, body),
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLinksAndPublicProfile(t *testing.T) {
	env := newAPIEnv(t, webhookSecret)
	token := env.registerAndLogin(t, "ada")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/links", nil, "", nil).Code)

	var firstID string
	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/links", gin.H{"title": "site", "url": "https://example.com"}, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		if firstID == "" {
			var resp struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			firstID = resp.Data.ID
		}
	}

	w := env.do(http.MethodPost, "/links", gin.H{"title": "third", "url": "https://example.org"}, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/links", gin.H{"title": "bad", "url": "not a url"}, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/redirect/"+firstID, nil, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/u/ada", nil, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clicks":1`)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/u/ghost", nil, "", nil).Code)

	w = env.do(http.MethodPut, "/accounts/profile", gin.H{"selected_theme": "neon_glow.css"}, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	env := newAPIEnv(t, webhookSecret)
	userToken := env.registerAndLogin(t, "ada")

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/admin/users", nil, userToken, nil).Code)

	env.registerAndLogin(t, "root")
	_, err := env.accounts.GrantAdmin(context.Background(), "root@example.com")
	require.NoError(t, err)
	adminToken := env.registerAndLoginExisting(t, "root")

	w := env.do(http.MethodGet, "/admin/users", nil, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/admin/plans/"+env.plan.ID.String(), nil, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/admin/plans", gin.H{"name": "Pro", "price": 900000, "features": []string{"Everything"}}, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/plans", nil, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Pro"`)
	assert.NotContains(t, w.Body.String(), `"name":"Premium"`)
}

func (e *apiEnv) registerAndLoginExisting(t *testing.T, username string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/accounts/login", gin.H{"email": username + "@example.com", "password": "secret1"}, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Token
}

func TestPasswordResetRoutes(t *testing.T) {
	env := newAPIEnv(t, webhookSecret)
	env.registerAndLogin(t, "ada")

	w := env.do(http.MethodPost, "/accounts/forgot-password", gin.H{"email": "ghost@example.com"}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/accounts/forgot-password", gin.H{"email": "ada@example.com"}, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := env.mail.resetTokens["ada@example.com"]
	require.NotEmpty(t, token)

	w = env.do(http.MethodPost, "/accounts/reset-password", gin.H{
		"token": token, "new_password": "changed1", "confirm_password": "different",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/accounts/reset-password", gin.H{
		"token": token, "new_password": "changed1", "confirm_password": "changed1",
	}, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/accounts/reset-password", gin.H{
		"token": token, "new_password": "changed2", "confirm_password": "changed2",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/accounts/login", gin.H{"email": "ada@example.com", "password": "changed1"}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_BurstFromOneAddressIsNotThrottled(t *testing.T) {
	env := newAPIEnv(t, webhookSecret)
	body := []byte(`{"event":"transfer.success","data":{"reference":"x"}}`)
	headers := map[string]string{"x-paystack-signature": services.SignWebhookBody(webhookSecret, body)}

	for i := 0; i < 60; i++ {
		w := env.do(http.MethodPost, "/paystack-webhook", body, "", headers)
		require.Equal(t, http.StatusOK, w.Code, "delivery %d", i)
	}
}
