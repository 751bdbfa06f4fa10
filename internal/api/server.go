package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tessera/internal/cache"
	"tessera/internal/config"
	"tessera/internal/database"
	"tessera/internal/handlers"
	"tessera/internal/messaging"
	"tessera/internal/middleware"
	"tessera/internal/models"
	"tessera/internal/repository"
	"tessera/internal/search"
	"tessera/internal/service"
)

// Server is the HTTP API server with its backing connections.
type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *database.DB
	nats      *messaging.NATSClient
	roleCache *cache.RoleCache
	services  *service.Services
	repos     *repository.Repositories
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Auth keeps working without the cache, every lookup just hits Postgres.
	roleCache, err := cache.NewRoleCache(cfg.Redis)
	if err != nil {
		log.Printf("Role cache unavailable, falling back to database auth: %v", err)
		roleCache = nil
	}

	concertIndex, err := search.NewConcertIndex(cfg.Elasticsearch)
	if err != nil {
		log.Fatalf("Failed to connect to Elasticsearch: %v", err)
	}

	repos := repository.NewRepositories(db)

	services := service.NewServices(repos, natsClient, concertIndex, service.Options{
		HoldTTL:       cfg.HoldTTL,
		RefundRestock: cfg.RefundRestock,
	})

	router := gin.Default()

	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:    router,
		config:    cfg,
		db:        db,
		nats:      natsClient,
		roleCache: roleCache,
		services:  services,
		repos:     repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	// Every API route requires Basic Auth
	api.Use(middleware.BasicAuth(s.repos.Users, s.roleCache))
	{
		orders := api.Group("/orders")
		{
			orders.POST("/hold", h.CreateHold)
			orders.PATCH("/confirm", h.ConfirmOrder)
			orders.PATCH("/cancel", h.CancelOrder)
			orders.PATCH("/extend", h.ExtendHold)
			orders.GET("/:id", h.GetOrder)

			// Listing, refunds and the dashboard are back office operations
			orders.GET("", middleware.RequireRole(models.RoleAdmin), h.ListOrders)
			orders.PATCH("/refund", middleware.RequireRole(models.RoleAdmin), h.RefundOrder)
			orders.GET("/stats", middleware.RequireRole(models.RoleAdmin), h.OrderStats)
		}

		concerts := api.Group("/concerts")
		{
			concerts.POST("", h.CreateConcert)
			concerts.GET("", h.ListConcerts)
			concerts.GET("/:id", h.GetConcert)
			concerts.PATCH("/submit", h.SubmitConcert)
			concerts.PATCH("/resubmit", h.ResubmitConcert)

			concerts.PATCH("/review", middleware.RequireRole(models.RoleAdmin), h.ReviewConcert)
			concerts.PATCH("/skip-review", middleware.RequireRole(models.RoleAdmin), h.SkipReview)
			concerts.GET("/stats", middleware.RequireRole(models.RoleAdmin), h.ConcertStats)
		}

		ticketTypes := api.Group("/ticket-types")
		{
			ticketTypes.POST("", h.CreateTicketType)
			ticketTypes.GET("", h.ListTicketTypes)
			ticketTypes.GET("/:id", h.GetTicketType)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tessera-api",
		"version": "1.0.0",
	})
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the backing connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.roleCache != nil {
		if err := s.roleCache.Close(); err != nil {
			log.Printf("Error closing role cache: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
