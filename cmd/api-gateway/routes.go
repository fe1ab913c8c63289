package main

import (
	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/handler"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/models"
)

type handlers struct {
	profile     *handler.ProfileHandler
	wizard      *handler.WizardHandler
	opportunity *handler.OpportunityHandler
	application *handler.ApplicationHandler
	tryout      *handler.TryoutHandler
	review      *handler.ReviewHandler
	dashboard   *handler.DashboardHandler
	files       *handler.FileHandler
}

// registerRoutes mounts the API under prefix. auth must reject unauthenticated callers.
func registerRoutes(r gin.IRouter, prefix string, auth gin.HandlerFunc, h handlers) {
	api := r.Group(prefix)
	if h.files != nil {
		api.GET("/files/:token", h.files.Download)
	}

	secured := api.Group("", auth)
	students := middleware.RequireRoles(models.RoleStudent)
	professors := middleware.RequireRoles(models.RoleProfessor)
	anyone := middleware.RequireRoles(models.RoleStudent, models.RoleProfessor)

	profile := secured.Group("/profile", students)
	profile.GET("", h.profile.Get)
	profile.PUT("", h.profile.Update)
	profile.GET("/documents", h.profile.ListDocuments)
	profile.POST("/documents", h.profile.UploadDocument)

	wizard := secured.Group("/wizard/profile", students)
	wizard.GET("", h.wizard.State)
	wizard.POST("/next", h.wizard.Next)
	wizard.POST("/back", h.wizard.Back)
	wizard.POST("/jump", h.wizard.Jump)

	secured.GET("/universities", anyone, h.opportunity.Universities)
	secured.GET("/profiles/search", professors, h.profile.Search)

	opportunities := secured.Group("/opportunities")
	opportunities.GET("", anyone, h.opportunity.List)
	opportunities.POST("", professors, h.opportunity.Create)
	opportunities.GET("/saved", students, h.opportunity.Saved)
	opportunities.GET("/:id", anyone, h.opportunity.Get)
	opportunities.PUT("/:id", professors, h.opportunity.Update)
	opportunities.POST("/:id/save", students, h.opportunity.Save)
	opportunities.DELETE("/:id/save", students, h.opportunity.Unsave)
	opportunities.POST("/:id/applications", students, h.application.Start)
	opportunities.GET("/:id/applicants", professors, h.review.Applicants)
	opportunities.GET("/:id/applicants/export", professors, h.review.Export)

	applications := secured.Group("/applications")
	applications.GET("", students, h.application.List)
	applications.GET("/:id", anyone, h.application.Get)
	applications.POST("/:id/submit", students, h.application.Submit)
	applications.POST("/:id/review", professors, h.review.Review)
	applications.GET("/:id/tryout", anyone, h.tryout.State)
	applications.PUT("/:id/tryout/:kind", students, h.tryout.Upload)
	applications.DELETE("/:id/tryout/:kind", students, h.tryout.Clear)
	applications.POST("/:id/tryout/next", students, h.tryout.Next)
	applications.POST("/:id/tryout/back", students, h.tryout.Back)
	applications.POST("/:id/tryout/submit", students, h.tryout.Submit)

	secured.GET("/dashboard", students, h.dashboard.Student)
	secured.GET("/mobility", students, h.dashboard.Mobility)
}
