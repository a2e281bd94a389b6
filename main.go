package main

import (
	"log"
	"time"
	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/fx"
	"tripledger-backend/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// FX resolver: memory tier always, Redis as the durable tier when available
	var store fx.CacheStore
	if database.Redis != nil {
		store = fx.NewRedisStore(database.Redis)
	}
	handlers.FX = fx.NewResolver(store, fx.Config{
		BaseURL: config.AppConfig.FXAPIURL,
		TTL:     time.Duration(config.AppConfig.FXCacheTTLHours) * time.Hour,
	})

	// Setup router
	r := gin.Default()
	r.Use(cors.Default())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==========================================
	// API ROUTES
	// ==========================================
	api := r.Group("/api")
	{
		// Trips & participants
		api.POST("/trips", handlers.CreateTrip)
		api.GET("/trips", handlers.GetTrips)
		api.GET("/trips/:id", handlers.GetTrip)
		api.PUT("/trips/:id", handlers.UpdateTrip)
		api.POST("/trips/:id/participants", handlers.AddParticipant)
		api.GET("/trips/:id/participants", handlers.GetParticipants)
		api.DELETE("/trips/:id/participants/:pid", handlers.RemoveParticipant)

		// Expenses
		api.POST("/trips/:id/expenses", handlers.CreateExpense)
		api.GET("/trips/:id/expenses", handlers.GetTripExpenses)
		api.GET("/expenses/:id", handlers.GetExpense)
		api.PUT("/expenses/:id", handlers.UpdateExpense)
		api.DELETE("/expenses/:id", handlers.DeleteExpense)

		// Itemized claims
		api.POST("/expenses/:id/claims", handlers.CreateClaim)
		api.DELETE("/claims/:id", handlers.DeleteClaim)

		// Settlements
		api.POST("/trips/:id/settlements", handlers.CreateSettlement)
		api.GET("/trips/:id/settlements", handlers.GetTripSettlements)

		// Balances
		api.GET("/trips/:id/balances", handlers.GetTripBalances)
		api.GET("/trips/:id/balances/:pid", handlers.GetParticipantBalance)

		// Activity
		api.GET("/trips/:id/activity", handlers.GetTripActivity)

		// FX rates
		api.GET("/fx/rate", handlers.GetFXRate)
		api.DELETE("/fx/cache", handlers.ClearFXCache)
	}

	// Start server
	port := config.AppConfig.Port
	addr := "0.0.0.0:" + port
	log.Printf("🚀 %s listening on %s", config.AppConfig.AppName, addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
