package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/invites/webhook — provider subscription verification handshake.
func (h *InviteHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if result := h.WhatsApp.VerifyWebhook(mode, token, challenge); result != "" {
		c.String(http.StatusOK, result)
		return
	}

	c.Status(http.StatusForbidden)
}

// POST /api/invites/webhook — delivery-status callbacks. Always acknowledges
// with 200: anything else makes the provider re-deliver the same callback in
// a tight loop. Failures are logged instead.
func (h *InviteHandler) ReceiveWebhook(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Webhook processing panic: %v", r)
		}
		c.Status(http.StatusOK)
	}()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("⚠️  Webhook body read error: %v", err)
		return
	}

	h.Reconciler.HandleCallback(body)
}
