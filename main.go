package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aviation-fuel-game/config"
	"aviation-fuel-game/handlers"
	"aviation-fuel-game/middleware"
	"aviation-fuel-game/services"
	"aviation-fuel-game/store"
	"aviation-fuel-game/utils"
	"aviation-fuel-game/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:           "aviation-fuel-game",
		Usage:          "fly between airports collecting the components of a new aviation fuel",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the game HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Usage: "listen port (overrides PORT)"},
					&cli.StringFlag{
						Name:    "airports",
						Usage:   "airport CSV, zip or URL to import before serving",
						Sources: cli.EnvVars("AIRPORTS_SOURCE"),
					},
				},
				Action: serve,
			},
			{
				Name:      "import-airports",
				Usage:     "load an OurAirports CSV into the airport table",
				ArgsUsage: "<file.csv|file.zip|url>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					src := cmd.Args().First()
					if src == "" {
						return errors.New("missing airport source, e.g. airports.csv")
					}
					_, st, err := setup()
					if err != nil {
						return err
					}
					_, err = importAirports(ctx, services.NewCatalogService(st), src)
					return err
				},
			},
			{
				Name:  "seed-events",
				Usage: "insert the default event catalog",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, st, err := setup()
					if err != nil {
						return err
					}
					_, err = services.NewCatalogService(st).SeedEvents(ctx)
					return err
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("❌ ", err)
	}
}

// setup loads configuration and opens the configured store.
func setup() (*config.Config, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Store == "memory" {
		log.Println("⚠️  [STORE] Using in-memory store, games are lost on restart")
		return cfg, store.NewMemoryStore(), nil
	}

	gs, err := store.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := gs.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return cfg, gs, nil
}

func importAirports(ctx context.Context, catalog *services.CatalogService, src string) (int, error) {
	rc, err := utils.OpenAirportSource(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer rc.Close()
	return catalog.ImportAirportsCSV(ctx, rc)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, st, err := setup()
	if err != nil {
		return err
	}
	if port := cmd.String("port"); port != "" {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := services.NewCatalogService(st)
	if src := cmd.String("airports"); src != "" {
		if _, err := importAirports(ctx, catalog, src); err != nil {
			return err
		}
	}
	if cfg.Store == "memory" {
		if _, err := catalog.SeedEvents(ctx); err != nil {
			return err
		}
	}
	if n, err := st.CountAirports(ctx); err == nil && n == 0 {
		log.Println("⚠️  [STORE] Airport table is empty, run import-airports first")
	}

	var uploader workers.Uploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			return err
		}
		uploader = r2
		log.Printf("✅ [ARCHIVER] Finished games go to R2 bucket %s", r2.Bucket())
	} else {
		log.Println("⚠️  [ARCHIVER] R2 bucket not configured, finished games are only logged")
	}
	archiver := workers.NewGameArchiver(st, uploader, cfg.Rules, cfg.ArchiveInterval)
	if _, err := archiver.Start(ctx); err != nil {
		return err
	}

	gameService := services.NewGameService(st, cfg.Rules)

	app := fiber.New(fiber.Config{
		AppName:      "aviation-fuel-game",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(middleware.RequestLogger())

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(allowedOrigins, ","),
		AllowMethods: "GET,HEAD,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))

	handlers.SetupHealthRoutes(app, gameService.Airports)
	handlers.SetupGameRoutes(app, middleware.APITokenMiddleware(cfg.APIToken), gameService, cfg.Rules)

	if err := utils.EnsureDir(cfg.StaticDir); err != nil {
		return fmt.Errorf("failed to ensure static dir: %w", err)
	}
	app.Use("/", filesystem.New(filesystem.Config{
		Root:   http.Dir(cfg.StaticDir),
		Index:  "index.html",
		MaxAge: 3600,
	}))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s (store=%s)", cfg.Port, cfg.Store)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}
