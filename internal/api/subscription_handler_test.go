package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/api/middleware"
	"cvforge/internal/database"
	"cvforge/internal/errcode"
)

func TestVerifyDownloadWithoutSubscription(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("alice", database.RoleUser)

	w := s.do(http.MethodPost, "/v1/subscription/verify-download", token, map[string]any{"downloadType": "cv"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, false, body["hasActiveSubscription"])
	assert.Equal(t, noSubscriptionMessage, body["message"])
	assert.Equal(t, errcode.NoSubscription, body["reason"])
}

func TestVerifyDownloadWithSubscription(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.createUser("alice", database.RoleUser)
	grantSubscription(t, s, userID, database.ContentCV)

	w := s.do(http.MethodPost, "/v1/subscription/verify-download", token, map[string]any{"downloadType": "cv"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["success"])

	sub, ok := body["subscription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, database.PlanMonthly, sub["plan"])
	assert.EqualValues(t, 30, sub["remainingDays"])

	w = s.do(http.MethodPost, "/v1/subscription/verify-download", token, map[string]any{"downloadType": "cover-letter"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["success"])

	w = s.do(http.MethodPost, "/v1/subscription/verify-download", token, map[string]any{"downloadType": "poster"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionStatus(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.createUser("alice", database.RoleUser)

	w := s.do(http.MethodGet, "/v1/subscription/status?type=cv", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["hasActiveSubscription"])

	grantSubscription(t, s, userID, database.ContentAll)
	w = s.do(http.MethodGet, "/v1/subscription/status?type=cover-letter", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["hasActiveSubscription"])

	w = s.do(http.MethodGet, "/v1/subscription/status", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhook(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("alice", database.RoleUser)

	event := map[string]any{
		"reference": "pay_123",
		"email":     "ALICE@example.com",
		"plan":      database.PlanYearly,
		"type":      database.ContentAll,
		"amount":    4900,
		"currency":  "eur",
	}

	w := s.do(http.MethodPost, "/v1/webhooks/payments", "", event)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/webhooks/payments", "", event, middleware.WebhookSecretHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/webhooks/payments", "", event, middleware.WebhookSecretHeader, testWebhookSecret)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[map[string]any](t, w)
	assert.Equal(t, true, first["created"])

	w = s.do(http.MethodPost, "/v1/webhooks/payments", "", event, middleware.WebhookSecretHeader, testWebhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[map[string]any](t, w)
	assert.Equal(t, false, again["created"])
	assert.Equal(t, first["subscriptionId"], again["subscriptionId"])

	var count int64
	require.NoError(t, s.db.Model(&database.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 通过邮箱关联到用户后即可下载。
	w = s.do(http.MethodPost, "/v1/subscription/verify-download", token, map[string]any{"downloadType": "cover-letter"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["success"])

	bad := map[string]any{"reference": "pay_124", "email": "x@example.com", "plan": "lifetime", "type": "cv"}
	w = s.do(http.MethodPost, "/v1/webhooks/payments", "", bad, middleware.WebhookSecretHeader, testWebhookSecret)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminSetSubscriptionStatus(t *testing.T) {
	s := newTestServer(t)
	userID, userToken := s.createUser("alice", database.RoleUser)
	_, adminToken := s.createUser("root", database.RoleAdmin)
	sub := grantSubscription(t, s, userID, database.ContentCV)

	path := "/v1/admin/subscriptions/" + sub.ID + "/status"
	w := s.do(http.MethodPut, path, userToken, map[string]any{"status": database.StatusCanceled})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, path, adminToken, map[string]any{"status": database.StatusCanceled})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/subscription/verify-download", userToken, map[string]any{"downloadType": "cv"})
	assert.Equal(t, false, decode[map[string]any](t, w)["success"])

	w = s.do(http.MethodPut, path, adminToken, map[string]any{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/v1/admin/subscriptions/missing/status", adminToken, map[string]any{"status": database.StatusActive})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
