package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
	"github.com/qaura-app/qaura/internal/pkg/cache"
	"github.com/qaura-app/qaura/internal/pkg/database"
	"github.com/qaura-app/qaura/internal/pkg/env"
	"github.com/qaura-app/qaura/internal/pkg/metrics/counter"
	"github.com/qaura-app/qaura/internal/pkg/router"
)

func main() {
	app := NewApplication()

	startCounterFlush()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	if err := models.LoadSettings(database.GetDB()); err != nil {
		log.Printf("could not load settings: %v", err)
	}

	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName:           "Q-aura",
		EnablePrintRoutes: env.IsDev(),
	})

	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// startCounterFlush persists the Redis funnel counters periodically so a
// restart loses at most one interval.
func startCounterFlush() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := counter.FlushAll(); err != nil {
				log.Printf("counter flush failed: %v", err)
			}
		}
	}()
}
