package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopalytics/backend/internal/application/ingest"
	"github.com/shopalytics/backend/internal/infrastructure/shopify"
	"github.com/shopalytics/backend/internal/interfaces/http/dto"
)

// WebhookHandler receives Shopify webhook deliveries
type WebhookHandler struct {
	BaseHandler
	webhookService *ingest.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookService *ingest.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// WebhookAckResponse acknowledges a processed delivery
type WebhookAckResponse struct {
	Received bool `json:"received"`
	// Duplicate is true when the delivery was already processed and was
	// acknowledged without reprocessing
	Duplicate bool `json:"duplicate,omitempty"`
}

// Receive godoc
// @Summary      Receive a Shopify webhook
// @Description  Verify, deduplicate and ingest one webhook delivery. The tenant is resolved from the X-Shopify-Shop-Domain header.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Shopify-Topic header string true "Webhook topic, e.g. orders/create"
// @Param        X-Shopify-Shop-Domain header string true "Shop domain"
// @Param        X-Shopify-Hmac-SHA256 header string false "Payload signature"
// @Param        X-Shopify-Webhook-Id header string false "Delivery ID for dedupe"
// @Success      200 {object} dto.Response{data=WebhookAckResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/shopify [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	// Read the raw body before any binding, signature verification runs
	// over the exact bytes as received
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		// The body limit middleware wraps the body in a MaxBytesReader,
		// oversized payloads surface here as a read error
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest, "Could not read request body")
		return
	}

	delivery := ingest.Delivery{
		Topic:      c.GetHeader(shopify.HeaderTopic),
		ShopDomain: c.GetHeader(shopify.HeaderShopDomain),
		Signature:  c.GetHeader(shopify.HeaderHmac),
		DeliveryID: c.GetHeader(shopify.HeaderWebhookID),
		Body:       body,
	}

	if delivery.Topic == "" {
		h.BadRequest(c, "Missing "+shopify.HeaderTopic+" header")
		return
	}
	if delivery.ShopDomain == "" {
		h.BadRequest(c, "Missing "+shopify.HeaderShopDomain+" header")
		return
	}

	result, err := h.webhookService.Process(c.Request.Context(), delivery)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, WebhookAckResponse{
		Received:  true,
		Duplicate: result.Duplicate,
	})
}
