package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/clinic-records-api/internal/middleware"
)

// Register mounts every API route under r. Everything except the auth
// entry points, the client public profile and the health check requires a
// bearer token.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", middleware.AuthMiddleware(h.Tokens), h.GetCurrentUser)
	}

	r.GET("/clients/:id/profile", h.GetClientPublicProfile)

	protected := r.Group("")
	protected.Use(middleware.AuthMiddleware(h.Tokens))
	{
		protected.GET("/clients", h.GetClients)
		protected.POST("/clients", h.CreateClient)
		protected.GET("/clients/search", h.SearchClients)
		protected.GET("/clients/:id", h.GetClient)
		protected.PUT("/clients/:id", h.UpdateClient)
		protected.DELETE("/clients/:id", h.DeleteClient)
		protected.POST("/clients/:id/programs", h.EnrollClientInProgram)
		protected.PUT("/clients/:id/programs/:programId", h.UpdateEnrollmentStatus)
		protected.DELETE("/clients/:id/programs/:programId", h.RemoveClientFromProgram)

		protected.GET("/programs", h.GetPrograms)
		protected.POST("/programs", h.CreateProgram)
		protected.GET("/programs/stats", h.GetProgramStats)
		protected.GET("/programs/:id", h.GetProgram)
		protected.PUT("/programs/:id", h.UpdateProgram)
		protected.DELETE("/programs/:id", h.DeleteProgram)

		protected.GET("/dashboard", h.GetDashboardStats)
	}
}
