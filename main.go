package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventcast/internal/api"
	"eventcast/internal/config"
	"eventcast/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	configPath := flag.String("config", os.Getenv("EVENTCAST_CONFIG"), "Config file (YAML)")
	flag.Parse()

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())
	logger := appContainer.Logger

	opts := []api.HandlerOption{
		api.WithDefaultConfidence(appConfig.Engine.Confidence),
		api.WithLogger(logger),
	}
	if appContainer.Source != nil {
		logger.Info("Using input workbook: %s", appConfig.Data.InputPath)
		opts = append(opts, api.WithTableSource(appContainer.Source))
	} else {
		logger.Info("No input workbook configured; requests must carry their tables")
	}

	gin.SetMode(appConfig.Server.GinMode)
	router := api.NewRouter(api.NewHandler(appContainer.Service, opts...))

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting eventcast server on port %s", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
