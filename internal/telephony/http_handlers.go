package telephony

import (
	"net/http"

	"fieldservice-crm/internal/audit"
	"fieldservice-crm/internal/callsession"
	"fieldservice-crm/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Webhook handlers convert Twilio callbacks to internal types and delegate
// to the reconciler. No business logic here.
//
// Tenant scoping: workspace_id and call_id are embedded as query parameters
// in the callback URLs this service hands to Twilio at dial time, so they
// come back on every callback.
//
// NOTE: these endpoints should be protected by Twilio signature validation
// in production.

// CallbackHandler serves the status and recording webhooks.
type CallbackHandler struct {
	Reconciler *callsession.Reconciler

	// Audit, when set, records applied callbacks in the audit trail.
	Audit *audit.Service
}

func (h CallbackHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "workspace_id required"})
		return
	}

	form, err := ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("status callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}

	cb, ok := form.ToStatusCallback(workspaceID)
	if !ok {
		// Unknown lifecycle event; acknowledge so Twilio stops retrying.
		log.Debug("status callback with untracked status", "call_status", form.CallStatus)
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.Reconciler.ApplyStatusCallback(c.Request.Context(), cb); err != nil {
		log.Error("status callback reconciliation failed", "err", err, "provider_call_id", cb.ProviderCallID)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	if h.Audit != nil {
		// Best effort; an audit write never fails the webhook response.
		err := h.Audit.Record(c.Request.Context(), audit.Event{
			WorkspaceID:    cb.WorkspaceID,
			Type:           audit.TypeCallbackApplied,
			ProviderCallID: cb.ProviderCallID,
			Fields:         map[string]any{"status": string(cb.Status)},
		})
		if err != nil {
			log.Warn("audit append failed", "provider_call_id", cb.ProviderCallID, "err", err)
		}
	}

	c.Status(http.StatusNoContent)
}

func (h CallbackHandler) HandleRecordingCallback(c *gin.Context) {
	log := logger.FromGin(c)

	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "workspace_id required"})
		return
	}

	form, err := ParseRecordingCallback(c.Request)
	if err != nil {
		log.Warn("recording callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" || form.RecordingURL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid and RecordingUrl required"})
		return
	}

	if err := h.Reconciler.ApplyRecordingCallback(c.Request.Context(), form.ToRecordingCallback(workspaceID)); err != nil {
		log.Error("recording callback reconciliation failed", "err", err, "provider_call_id", form.CallSid)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// VoiceHandler serves the TwiML Twilio fetches when an outbound call
// connects.
type VoiceHandler struct {
	Sessions callsession.Store
}

func (h VoiceHandler) HandleVoice(c *gin.Context) {
	log := logger.FromGin(c)

	workspaceID := c.Query("workspace_id")
	callID := c.Query("call_id")
	if workspaceID == "" || callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "workspace_id and call_id required"})
		return
	}

	s, err := h.Sessions.FindByID(c.Request.Context(), workspaceID, callID)
	if err != nil {
		log.Warn("voice fetch for unknown call", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown call"})
		return
	}

	answeredBy := c.Query("AnsweredBy")
	if answeredBy == "" {
		answeredBy = c.PostForm("AnsweredBy")
	}

	twiml, err := RenderCallScript(s, answeredBy)
	if err != nil {
		log.Error("twiml render failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}

	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
