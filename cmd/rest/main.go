package main

import (
	"context"
	"log"

	"ai-landing-be/internal/bootstrap"
	"ai-landing-be/internal/config"
	"ai-landing-be/internal/server"
	"ai-landing-be/internal/tracer"
	"ai-landing-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	go func() {
		log.Println("Background: Starting preview consumer...")
		if err := container.PreviewConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background preview consumer error: %v", err)
		}
	}()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
