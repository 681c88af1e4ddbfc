package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/viewra/internal/config"
	"github.com/mantonx/viewra/internal/database"
	viewraerrors "github.com/mantonx/viewra/internal/errors"
	"github.com/mantonx/viewra/internal/events"
	"github.com/mantonx/viewra/internal/modules/modulemanager"
	"github.com/mantonx/viewra/internal/sessions/sessionmodule"
	"github.com/mantonx/viewra/internal/sessions/transport"
)

func main() {
	fmt.Println("=======================================")
	fmt.Println("  Viewra Session Manager                ")
	fmt.Println("=======================================")

	configPath := os.Getenv("VIEWRA_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("/app/viewra-data/viewra.yaml"); err == nil {
			configPath = "/app/viewra-data/viewra.yaml"
		} else if _, err := os.Stat("./viewra.yaml"); err == nil {
			configPath = "./viewra.yaml"
		}
	}

	if err := config.Load(configPath); err != nil {
		log.Printf("⚠️  Warning: Failed to load configuration from %s: %v", configPath, err)
		log.Printf("Using default configuration")
	} else if configPath != "" {
		log.Printf("✅ Configuration loaded from: %s", configPath)
	} else {
		log.Printf("✅ Using default configuration")
	}

	database.Initialize()
	db := database.GetDB()
	if db == nil {
		log.Fatal("Failed to initialize database")
	}

	eventBus := events.NewEventBus()
	if err := eventBus.Start(); err != nil {
		log.Fatalf("Failed to start event bus: %v", err)
	}
	events.SetGlobalEventBus(eventBus)

	wsFactory := transport.NewWebSocketFactory()
	pollFactory := transport.NewHTTPPollFactory()

	sessionMod := sessionmodule.NewModule(wsFactory, pollFactory)
	modulemanager.Register(sessionMod)

	if err := modulemanager.LoadAll(db); err != nil {
		log.Fatalf("Failed to initialize modules: %v", err)
	}

	cfg := config.Get()

	reporter := viewraerrors.NewErrorReporter(cfg.Logging.Level == "debug", true)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(viewraerrors.EnhancedRecoveryMiddleware(reporter))
	router.Use(viewraerrors.EnhancedErrorMiddleware(reporter))
	if cfg.Server.EnableCORS {
		router.Use(corsMiddleware())
	}

	modulemanager.RegisterRoutes(router)

	router.GET("/sessions/ws", func(c *gin.Context) {
		deviceId := c.Query("deviceId")
		if deviceId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
			return
		}
		if err := wsFactory.HandleUpgrade(c, deviceId); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	})

	router.POST("/sessions/:deviceId/poll/register", func(c *gin.Context) {
		var req struct {
			CallbackId string `json:"callbackId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		pollFactory.Register(c.Param("deviceId"), req.CallbackId)
		c.Status(http.StatusNoContent)
	})

	router.GET("/sessions/:deviceId/poll", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"commands": pollFactory.Poll(c.Param("deviceId"))})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\nShutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		sessionMod.Manager.BroadcastServerShutdown(shutdownCtx)
		sessionMod.Shutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("🚀 Starting Viewra session manager on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
