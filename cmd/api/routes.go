package main

import (
	"database/sql"
	"net/http"
	"time"

	"fieldservice-crm/internal/audit"
	"fieldservice-crm/internal/callsession"
	"fieldservice-crm/internal/dialer"
	"fieldservice-crm/internal/httpapi"
	"fieldservice-crm/internal/rbac"
	"fieldservice-crm/internal/reporting"
	"fieldservice-crm/internal/telephony"
	"fieldservice-crm/pkg/utils"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	AuthMW       gin.HandlerFunc
	Orchestrator *dialer.Orchestrator
	Sessions     callsession.Store
	Reconciler   *callsession.Reconciler
	Audit        *audit.Service
	Reports      *reporting.Service
	DB           *sql.DB
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.DB, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). Tenant scope rides on the workspace_id and
	// call_id query parameters the orchestrator baked into the callback URLs.
	// NOTE: these endpoints should be protected by Twilio signature validation
	// in production.
	{
		cb := telephony.CallbackHandler{Reconciler: deps.Reconciler, Audit: deps.Audit}
		voice := telephony.VoiceHandler{Sessions: deps.Sessions}
		r.POST("/webhooks/twilio/voice", voice.HandleVoice)
		r.POST("/webhooks/twilio/status", cb.HandleStatusCallback)
		r.POST("/webhooks/twilio/recording", cb.HandleRecordingCallback)
	}

	h := httpapi.Handlers{
		Orchestrator: deps.Orchestrator,
		Sessions:     deps.Sessions,
		Audit:        deps.Audit,
		Reports:      deps.Reports,
	}

	v1 := r.Group("/v1")
	v1.Use(deps.AuthMW)
	v1.Use(rbac.RequireWorkspace())
	{
		calls := v1.Group("/")
		calls.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleDispatcher))
		{
			calls.POST("/jobs/:job_id/call", h.StartJobCall)
			calls.GET("/jobs/:job_id/call", h.GetLatestJobCall)
			calls.GET("/calls/:call_id", h.GetCallSession)
		}

		admin := v1.Group("/")
		admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleDispatcher, rbac.RoleBookkeeper))
		{
			admin.GET("/jobs/:job_id/audit", h.ListJobAuditEvents)
			admin.GET("/reports/calls", h.CallsSummary)
		}
	}
}
