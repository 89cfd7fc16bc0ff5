package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/studenthub/outreach-api/internal/config"
	"github.com/studenthub/outreach-api/internal/database"
	"github.com/studenthub/outreach-api/internal/handler"
	"github.com/studenthub/outreach-api/internal/media"
	"github.com/studenthub/outreach-api/internal/middleware"
	"github.com/studenthub/outreach-api/internal/repository"
	"github.com/studenthub/outreach-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	uploader, err := media.NewUploader(cfg.CloudinaryURL)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	students := repository.NewStudentRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewOpenDayRepo(db)
	podcasts := repository.NewPodcastRepo(db)

	// Admin credentials come from validated startup configuration, not
	// from anything baked into the binary.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := students.EnsureAdmin(ctx, cfg.AdminFullName, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatalf("admin bootstrap: %v", err)
	}
	cancel()

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, students, tokens),
		Users:        handler.NewUserHandler(cfg, students, tokens),
		OpenDays:     handler.NewOpenDayHandler(events),
		Registration: handler.NewRegistrationHandler(events, students),
		Podcasts:     handler.NewPodcastHandler(podcasts, uploader),
		JWTSecret:    cfg.JWTSecret,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
