package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, providers ...Provider) (*gin.Engine, *dispatcherFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fx := newDispatcherFixture(t, providers...)
	service := NewService(fx.dispatcher, fx.statuses, nil)
	handler := NewHandler(service)

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r, fx
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Dispatch(t *testing.T) {
	sms := &fakeProvider{channel: ChannelSMS, name: "kavenegar", messageID: "sms-1"}
	r, _ := newTestRouter(t, sms)

	w := doJSON(r, http.MethodPost, "/api/v1/dispatch", validDispatchRequest())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    DispatchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.RequestID)
	require.Len(t, resp.Data.Statuses, 1)
	assert.Equal(t, StateSent, resp.Data.Statuses[0].State)
}

func TestHandler_DispatchRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/dispatch", map[string]any{
		"category": "order_confirmation",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_DispatchRejectsUnknownCategory(t *testing.T) {
	r, _ := newTestRouter(t)

	req := validDispatchRequest()
	req.Category = "spam"
	w := doJSON(r, http.MethodPost, "/api/v1/dispatch", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetStatus(t *testing.T) {
	r, fx := newTestRouter(t)

	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	require.NoError(t, fx.statuses.Create(context.Background(), st))

	w := doJSON(r, http.MethodGet, "/api/v1/notifications/"+st.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/notifications/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ListStatuses(t *testing.T) {
	r, fx := newTestRouter(t)

	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	require.NoError(t, fx.statuses.Create(context.Background(), st))

	w := doJSON(r, http.MethodGet, "/api/v1/notifications?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    ListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
}

func TestHandler_DeliveryWebhook(t *testing.T) {
	r, fx := newTestRouter(t)

	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	st.MarkSent("prov-42")
	require.NoError(t, fx.statuses.Create(context.Background(), st))

	w := doJSON(r, http.MethodPost, "/api/v1/webhooks/delivery", map[string]string{
		"event":               "delivered",
		"provider_message_id": "prov-42",
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := fx.statuses.GetByID(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, got.State)
}

func TestHandler_DeliveryWebhookIgnoresUnknownEvent(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/webhooks/delivery", map[string]string{
		"event":               "opened",
		"provider_message_id": "prov-42",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestHandler_DeliveryWebhookRejectsEmptyMessageID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/webhooks/delivery", map[string]string{
		"event": "delivered",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
