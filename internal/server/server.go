package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	_ "github.com/joho/godotenv/autoload"

	"jaguarundi/internal/database"
	"jaguarundi/internal/handlers"
	"jaguarundi/internal/routes"
	"jaguarundi/internal/services"
	"jaguarundi/internal/utils"
)

const (
	defaultPort       = 8080
	defaultSchemaFile = "schema.yaml"
)

func NewServer() *http.Server {
	port := defaultPort
	if raw := os.Getenv("PORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("invalid PORT %q: %v", raw, err)
		}
		port = p
	}

	schemaFile := os.Getenv("SCHEMA_FILE")
	if schemaFile == "" {
		schemaFile = defaultSchemaFile
	}

	cfg, err := database.LoadConfig()
	if err != nil {
		log.Fatalf("invalid database configuration: %v", err)
	}

	registry, err := services.LoadSchemaFile(schemaFile)
	if err != nil {
		log.Fatalf("failed to load schema: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Dependency injection
	logger := log.Default()
	entityService := services.NewEntityService(registry, db, logger, cfg.PrintRequests)
	schemaService := services.NewSchemaService(registry)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Existing tables are expected on restart; failures are logged, not fatal.
		if err := entityService.CreateTables(ctx); err != nil {
			log.Printf("create tables: %v", err)
		}
	}

	entityHandler := handlers.NewEntityHandler(entityService)
	schemaHandler := handlers.NewSchemaHandler(schemaService)

	// Keep JSON numbers exact until they are converted by column type.
	binding.EnableDecoderUseNumber = true

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.New(corsConfig(os.Getenv("CORS_ORIGINS"))))
	routes.RegisterRoutes(router, entityHandler, schemaHandler, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))

	// Create and configure the HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	server.RegisterOnShutdown(func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	})

	return server
}

func corsConfig(origins string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID"}

	allowed := utils.SplitList(origins)
	if len(allowed) == 0 || utils.Contains(allowed, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowed
	return cfg
}
