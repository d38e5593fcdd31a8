package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-qa-platform-be/internal/bootstrap"
	"ai-qa-platform-be/internal/config"
	"ai-qa-platform-be/internal/tracer"
	"ai-qa-platform-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer func() {
		if container.EventPublisher != nil {
			container.EventPublisher.Close()
		}
		if container.EventSubscriber != nil {
			container.EventSubscriber.Close()
		}
		container.Logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Background: Starting Consumer Service...")
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Background Consumer Error: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
}
