package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dimasprabowo/procurement-management/internal/auth"
	"github.com/dimasprabowo/procurement-management/internal/budget"
	"github.com/dimasprabowo/procurement-management/internal/indent"
	"github.com/dimasprabowo/procurement-management/internal/supplier"
	"github.com/dimasprabowo/procurement-management/internal/transport/middleware"
	"github.com/dimasprabowo/procurement-management/internal/transport/swagger"
	"github.com/dimasprabowo/procurement-management/internal/workflow"
	"github.com/go-chi/chi"
)

// GrantWorkflowAdmin protects workflow and budget configuration endpoints.
// It is a role grant api_name like the approval actions.
const GrantWorkflowAdmin = "workflow_admin"

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, indentHandler *indent.Handler, supplierHandler *supplier.Handler, workflowHandler *workflow.Handler, budgetHandler *budget.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
			})

			// Portal identity: OTP flow for the public customer and
			// careers portals, no account required.
			r.Route("/portal/otp", func(sr chi.Router) {
				sr.Post("/request", authHandler.RequestOTP)
				sr.Post("/verify", authHandler.VerifyOTP)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if indentHandler != nil {
					pr.Route("/indents", func(ir chi.Router) {
						ir.Post("/", indentHandler.CreateIndent)
						ir.Get("/", indentHandler.GetUserIndents)
						ir.Get("/{id}", indentHandler.GetIndent)
						ir.Patch("/{id}", indentHandler.UpdateIndentDetails)
						ir.Patch("/{id}/status", indentHandler.UpdateIndentStatus)
						ir.Post("/{id}/rfp", indentHandler.GenerateRFP)

						ir.Group(func(ar chi.Router) {
							ar.Use(middleware.RequireGrants(workflow.ActionApprove, GrantWorkflowAdmin))
							ar.Get("/all", indentHandler.GetAllIndents)
						})
					})
				}

				if supplierHandler != nil {
					pr.Route("/suppliers", func(sr chi.Router) {
						sr.Post("/", supplierHandler.CreateSupplier)
						sr.Get("/", supplierHandler.GetAllSuppliers)
						sr.Get("/{id}", supplierHandler.GetSupplier)
						sr.Put("/{id}", supplierHandler.UpdateSupplier)
						sr.Patch("/{id}/stage", supplierHandler.UpdateStage)
					})
				}

				// Workflow and budget configuration is admin-only.
				if workflowHandler != nil {
					pr.Group(func(ar chi.Router) {
						ar.Use(middleware.RequireGrants(GrantWorkflowAdmin))
						ar.Route("/workflows", func(wr chi.Router) {
							wr.Post("/", workflowHandler.CreateWorkflow)
							wr.Get("/", workflowHandler.ListWorkflows)
							wr.Get("/{id}", workflowHandler.GetWorkflow)
							wr.Post("/{id}/assignments", workflowHandler.AssignUser)
							wr.Post("/{id}/approval-groups", workflowHandler.ConfigureApprovalGroup)
							wr.Get("/{id}/approval-groups", workflowHandler.ListApprovalGroups)
						})
					})
				}

				if budgetHandler != nil {
					pr.Route("/budgets", func(br chi.Router) {
						br.Get("/{id}", budgetHandler.GetBudget)

						br.Group(func(ar chi.Router) {
							ar.Use(middleware.RequireGrants(GrantWorkflowAdmin))
							ar.Post("/", budgetHandler.CreateBudget)
						})
					})
					pr.Get("/departments", budgetHandler.ListDepartments)
					pr.Get("/departments/{id}/budgets", budgetHandler.ListByDepartment)
				}
			})
		}
	})
}
