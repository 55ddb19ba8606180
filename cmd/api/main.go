package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"github.com/dare4net/earnest-gaming-backend/internal/config"
	"github.com/dare4net/earnest-gaming-backend/internal/handlers"
	"github.com/dare4net/earnest-gaming-backend/internal/middleware"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)
	catalogService := services.NewCatalogService(redisService)

	wsHandler := handlers.NewWebSocketHandler(redisService)

	walletService := services.NewWalletService(redisService, wsHandler, cfg)
	matchService := services.NewMatchService(redisService, walletService, catalogService, wsHandler, cfg)

	startScheduler(matchService, cfg)

	matchHandler := handlers.NewMatchHandler(matchService)
	walletHandler := handlers.NewWalletHandler(walletService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/api/games", catalogHandler.ListGames)
	router.GET("/api/games/:slug", catalogHandler.GetGame)
	router.GET("/api/leagues", catalogHandler.ListLeagues)
	router.GET("/api/leagues/:id", catalogHandler.GetLeague)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		matches := protected.Group("/matches")
		{
			matches.GET("", matchHandler.ListMatches)
			matches.GET("/:id", matchHandler.GetMatch)
			matches.GET("/user/:userId", matchHandler.GetUserMatches)
			matches.GET("/user/:userId/active", matchHandler.GetUserActiveMatches)

			matches.POST("/create", matchHandler.CreateMatch)
			matches.POST("/:id/searchOpponent", matchHandler.SearchOpponents)
			matches.POST("/:id/invite", matchHandler.Invite)
			matches.POST("/:id/join", matchHandler.Join)
			matches.POST("/:id/matchWithPlayer", matchHandler.MatchWithPlayer)
			matches.POST("/:id/decline", matchHandler.Decline)
			matches.DELETE("/:id", matchHandler.DeleteMatch)
			matches.POST("/:id/cancel", matchHandler.Cancel)

			matches.POST("/:id/start", matchHandler.Start)
			matches.POST("/:id/end", matchHandler.End)
			matches.POST("/:id/screenshot", matchHandler.SubmitScreenshot)
			matches.POST("/:id/adjudicate", matchHandler.Adjudicate)
			matches.POST("/:id/dispute", matchHandler.RaiseDispute)
			matches.POST("/:id/dispute/resolve", matchHandler.ResolveDispute)
			matches.POST("/:id/chat", matchHandler.PostChat)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/user/:userId", walletHandler.GetWallet)
			wallet.GET("/user/:userId/transactions", walletHandler.GetTransactions)
			wallet.POST("/transaction", walletHandler.CreateTransaction)
		}
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// startScheduler runs the periodic sweep that cancels searching matches
// nobody joined within the configured TTL.
func startScheduler(matchService *services.MatchService, cfg *config.Config) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			matchService.CleanupStaleMatches(context.Background(), cfg.StaleMatchTTL)
		}),
	)
	if err != nil {
		log.Fatalf("Failed to schedule stale match sweep: %v", err)
	}

	sched.Start()
}
