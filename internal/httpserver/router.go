package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"projecttracker/internal/api"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *api.AuthHandler,
	employeeHandler *api.EmployeeHandler,
	projectHandler *api.ProjectHandler,
	lifecycleHandler *api.LifecycleHandler,
	sisterHandler *api.SisterHandler,
	messageHandler *api.MessageHandler,
	reportHandler *api.ReportHandler,
	catalogHandler *api.CatalogHandler,
	adminHandler *api.AdminHandler,
	jwtSecret string,
	db *pgxpool.Pool,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware(), MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/employees", employeeHandler.Create)
		auth.GET("/employees/:id", employeeHandler.Get)
		auth.GET("/employees/:id/supervisors", employeeHandler.Supervisors)
		auth.GET("/employees/:id/reports", employeeHandler.Reports)

		auth.POST("/projects", projectHandler.Create)
		auth.GET("/projects/:id", projectHandler.Get)
		auth.GET("/projects/:id/status", lifecycleHandler.Status)
		auth.GET("/projects/:id/milestones", projectHandler.Milestones)
		auth.GET("/projects/:id/milestones/status", projectHandler.StatusDict)
		auth.GET("/projects/:id/milestones/complete", lifecycleHandler.MilestoneComplete)
		auth.POST("/projects/:id/milestones", lifecycleHandler.Attach)

		auth.POST("/projects/:id/approve", lifecycleHandler.Approve)
		auth.POST("/projects/:id/unapprove", lifecycleHandler.Unapprove)
		auth.POST("/projects/:id/signoff", lifecycleHandler.SignOff)
		auth.POST("/projects/:id/reopen", lifecycleHandler.Reopen)
		auth.POST("/projects/:id/cancel", lifecycleHandler.Cancel)
		auth.POST("/projects/:id/uncancel", lifecycleHandler.Uncancel)

		auth.POST("/projects/:id/sisters", sisterHandler.Add)
		auth.DELETE("/projects/:id/sisters", sisterHandler.Remove)
		auth.GET("/projects/:id/sisters", sisterHandler.List)
		auth.GET("/projects/:id/sisters/candidates", sisterHandler.Candidates)

		auth.POST("/projects/:id/reports", reportHandler.Register)
		auth.GET("/projects/:id/reports/outstanding", reportHandler.Outstanding)
		auth.GET("/projects/:id/reports/complete", reportHandler.Complete)

		auth.POST("/projects/:id/watch", projectHandler.Watch)
		auth.DELETE("/projects/:id/watch", projectHandler.Unwatch)

		auth.GET("/messages", messageHandler.MyMessages)
		auth.GET("/messages/deliveries", messageHandler.MyDeliveries)
		auth.POST("/messages/:id/read", messageHandler.MarkRead)

		auth.GET("/milestones", catalogHandler.List)
		auth.POST("/milestones", catalogHandler.Create)
		auth.DELETE("/milestones/:id", catalogHandler.Delete)

		auth.GET("/admin/outbox/failed", adminHandler.FailedEvents)
		auth.POST("/admin/outbox/:id/replay", adminHandler.ReplayEvent)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
