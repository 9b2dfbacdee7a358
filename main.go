package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/attestra/formtrail/internal/config"
	"github.com/attestra/formtrail/internal/db"
	"github.com/attestra/formtrail/internal/gelf"
	"github.com/attestra/formtrail/internal/handler"
	"github.com/attestra/formtrail/internal/keyring"
	"github.com/attestra/formtrail/internal/repository"
	"github.com/attestra/formtrail/internal/revision"
	"github.com/attestra/formtrail/internal/router"
	"github.com/attestra/formtrail/internal/service"
	"github.com/attestra/formtrail/internal/signature"
)

func main() {
	cfg := config.Load()

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr)
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	// Connect to MongoDB
	mongoDB, closeDB, err := db.Connect(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer closeDB()
	log.Printf("Connected to MongoDB at %s (database: %s)", cfg.MongoURI, cfg.MongoDB)

	// Repositories
	userRepo := repository.NewUserRepo(mongoDB)
	projectRepo := repository.NewProjectRepo(mongoDB)
	formRepo := repository.NewFormRepo(mongoDB)
	formRevRepo := repository.NewFormRevisionRepo(mongoDB)
	subRepo := repository.NewSubmissionRepo(mongoDB)
	subRevRepo := repository.NewSubmissionRevisionRepo(mongoDB)
	sigRepo := repository.NewSignatureRepo(mongoDB)

	// Engines
	formVersioner := revision.NewFormVersioner(formRevRepo)
	subVersioner := revision.NewSubmissionVersioner(subRevRepo, subRepo)
	ring := keyring.NewRing(cfg.SigningSecret)
	engine := signature.NewEngine(ring, sigRepo, repository.NewAttachments(subRepo, subRevRepo), service.NewNestedLoader(subRepo))

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	projectSvc := service.NewProjectService(projectRepo)
	formSvc := service.NewFormService(formRepo, formRevRepo, projectRepo, formVersioner)
	subSvc := service.NewSubmissionService(subRepo, subRevRepo, formRepo, projectRepo, sigRepo, subVersioner, formVersioner, engine)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	projectH := handler.NewProjectHandler(projectSvc)
	formH := handler.NewFormHandler(formSvc)
	subH := handler.NewSubmissionHandler(subSvc)

	// Router
	r := router.New(cfg.JWTSecret, authH, projectH, formH, subH)

	// Start HTTP immediately; index builds and admin seeding run in
	// background so startup never blocks on a slow collection.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		log.Printf("Background init: starting")
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: user index creation failed: %v", err)
		}
		if err := formRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: form index creation failed: %v", err)
		}
		if err := formRevRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: form revision index creation failed: %v", err)
		}
		if err := subRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: submission index creation failed: %v", err)
		}
		if err := subRevRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: submission revision index creation failed: %v", err)
		}
		if err := sigRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: signature index creation failed: %v", err)
		}
		if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPass); err != nil {
			log.Printf("Warning: failed to seed admin: %v", err)
		}
		log.Printf("Background init: all done")
	}()

	log.Printf("formtrail server starting on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
