package httpapi

import (
	"errors"
	"net/http"
	"time"

	"fieldservice-crm/internal/audit"
	"fieldservice-crm/internal/auth"
	"fieldservice-crm/internal/callsession"
	"fieldservice-crm/internal/dialer"
	"fieldservice-crm/internal/reporting"
	"fieldservice-crm/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers is the authenticated JSON API surface. Webhook handlers live in
// internal/telephony; they are unauthenticated and provider-shaped.
type Handlers struct {
	Orchestrator *dialer.Orchestrator
	Sessions     callsession.Store
	Audit        *audit.Service
	Reports      *reporting.Service
}

type startCallBody struct {
	CustomerID    string `json:"customer_id"`
	ToNumber      string `json:"to_number"`
	ScriptBody    string `json:"script_body"`
	ScriptSummary string `json:"script_summary"`

	Voice          string `json:"voice"`
	GreetingStyle  string `json:"greeting_style"`
	AllowVoicemail bool   `json:"allow_voicemail"`
}

// StartJobCall places an automated outbound call for a job.
// POST /v1/jobs/:job_id/call
func (h Handlers) StartJobCall(c *gin.Context) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var body startCallBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": dialer.CodeInvalidPayload, "message": "request body is not valid JSON"})
		return
	}

	res := h.Orchestrator.StartOutboundCall(c.Request.Context(), dialer.Request{
		WorkspaceID:    workspaceID,
		JobID:          c.Param("job_id"),
		CustomerID:     body.CustomerID,
		ToNumber:       body.ToNumber,
		ScriptBody:     body.ScriptBody,
		ScriptSummary:  body.ScriptSummary,
		Voice:          body.Voice,
		GreetingStyle:  body.GreetingStyle,
		AllowVoicemail: body.AllowVoicemail,
	})

	switch res.Kind {
	case dialer.KindSuccess:
		c.JSON(http.StatusCreated, res)
	case dialer.KindAlreadyInProgress:
		c.JSON(http.StatusOK, res)
	default:
		logger.FromGin(c).Warn("dial failed",
			"job_id", c.Param("job_id"), "code", res.Failure.Code, "detail", res.Failure.Message)
		c.JSON(failureStatus(res.Failure.Code), gin.H{
			"error":   res.Failure.Code,
			"message": res.Failure.UserMessage(),
			"call_id": res.CallID,
		})
	}
}

// failureStatus maps orchestration failure codes to HTTP statuses.
func failureStatus(code string) int {
	switch code {
	case dialer.CodeInvalidPayload, dialer.CodeMissingCustomerPhone, dialer.CodeMissingScript:
		return http.StatusBadRequest
	case dialer.CodeUnauthenticated:
		return http.StatusUnauthorized
	case dialer.CodeForbidden:
		return http.StatusForbidden
	case dialer.CodeWorkspaceNotFound, dialer.CodeJobNotFound, dialer.CodeMissingCustomer:
		return http.StatusNotFound
	case dialer.CodeRejectedDueToCompletedCall:
		return http.StatusConflict
	case dialer.CodeWorkspaceCallCapReached:
		return http.StatusTooManyRequests
	case dialer.CodeTwilioNotConfigured, dialer.CodeTwilioCallFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetCallSession returns one call session.
// GET /v1/calls/:call_id
func (h Handlers) GetCallSession(c *gin.Context) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	s, err := h.Sessions.FindByID(c.Request.Context(), workspaceID, c.Param("call_id"))
	if err != nil {
		if errors.Is(err, callsession.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetLatestJobCall returns the most recent outbound call for a job.
// GET /v1/jobs/:job_id/call
func (h Handlers) GetLatestJobCall(c *gin.Context) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	s, err := h.Sessions.FindLatestOutbound(c.Request.Context(), workspaceID, c.Param("job_id"))
	if err != nil {
		if errors.Is(err, callsession.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no call for job"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// ListJobAuditEvents returns the audit trail for a job, newest first.
// GET /v1/jobs/:job_id/audit
func (h Handlers) ListJobAuditEvents(c *gin.Context) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	events, err := h.Audit.ListByJob(c.Request.Context(), workspaceID, c.Param("job_id"), 50)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// CallsSummary returns aggregate call activity for the caller's workspace.
// GET /v1/reports/calls?from=RFC3339&to=RFC3339
func (h Handlers) CallsSummary(c *gin.Context) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	req := reporting.SummaryRequest{WorkspaceID: workspaceID}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		req.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		req.To = t
	}

	sum, err := h.Reports.CallsSummary(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidWindow) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}
