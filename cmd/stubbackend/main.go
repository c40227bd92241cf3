package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dhruv3sood/finq/internal/config"
	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/stubbackend"
	"github.com/Dhruv3sood/finq/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Logger & Tracer
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, "finq-stubbackend")
	defer shutdownTracer(context.Background())

	// 3. Server
	srv := stubbackend.New(stubbackend.Config{CorsAllowedOrigins: cfg.App.CorsAllowedOrigins}, sysLogger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down stub backend...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(cfg.App.StubPort); err != nil {
		log.Fatal(err)
	}
}
