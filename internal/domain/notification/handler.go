package notification

import (
	"log/slog"
	"net/http"

	"dinenotify/internal/common"
	"dinenotify/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dispatch handles POST /api/v1/dispatch
// Dispatches a notification synchronously and returns the per-channel outcome.
func (h *Handler) Dispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Dispatch(c.Request.Context(), &req)
	if err != nil {
		slog.Error("dispatch failed",
			"error", err,
			"category", req.Category,
			"recipient_id", req.Recipient.ID,
			"http_request_id", middleware.FromContext(c),
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// GetStatus handles GET /api/v1/notifications/:id
func (h *Handler) GetStatus(c *gin.Context) {
	id := c.Param("id")

	st, err := h.service.GetStatus(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, st)
}

// ListStatuses handles GET /api/v1/notifications
func (h *Handler) ListStatuses(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListStatuses(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// DeliveryWebhook handles POST /api/v1/webhooks/delivery
// Receives delivery receipts from providers and applies the
// sent-to-delivered transition by provider message id.
func (h *Handler) DeliveryWebhook(c *gin.Context) {
	var event struct {
		Event             string `json:"event"`
		ProviderMessageID string `json:"provider_message_id"`
	}

	if err := c.ShouldBindJSON(&event); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid webhook payload: "+err.Error())
		return
	}

	var state State
	switch event.Event {
	case "delivered":
		state = StateDelivered
	case "expired":
		state = StateExpired
	default:
		// Acknowledge but ignore unhandled event types
		slog.Info("ignoring webhook event", "event", event.Event)
		common.Success(c, http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.service.HandleReceipt(c.Request.Context(), event.ProviderMessageID, state); err != nil {
		slog.Error("webhook processing failed",
			"event", event.Event,
			"provider_message_id", event.ProviderMessageID,
			"error", err,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"status": "processed"})
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/dispatch", h.Dispatch)
	rg.GET("/notifications", h.ListStatuses)
	rg.GET("/notifications/:id", h.GetStatus)
	rg.POST("/webhooks/delivery", h.DeliveryWebhook)
}
