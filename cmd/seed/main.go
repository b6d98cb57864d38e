package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/JaimeStill/document-manager/internal/auth"
	"github.com/JaimeStill/document-manager/internal/config"
	"github.com/JaimeStill/document-manager/internal/documents"
	"github.com/JaimeStill/document-manager/internal/migrations"
	"github.com/JaimeStill/document-manager/pkg/database"
	"github.com/JaimeStill/document-manager/pkg/logging"
	"github.com/JaimeStill/document-manager/pkg/storage"
)

func main() {
	var (
		user  = flag.String("user", "", "Owner id for seeded documents and issued tokens (random when empty)")
		token = flag.Bool("token", false, "Print a bearer token for -user")
		all   = flag.Bool("all", false, "Run all seeders")
		docs  = flag.Bool("documents", false, "Seed documents")
		file  = flag.String("file", "", "External seed file (overrides embedded)")
		list  = flag.Bool("list", false, "List available seeders")
	)
	flag.Parse()

	if *list {
		fmt.Println("Available seeders:")
		for _, s := range listSeeders() {
			fmt.Printf("  - %s: %s\n", s.Name(), s.Description())
		}
		return
	}

	if !*token && !*all && !*docs {
		fmt.Println("usage: seed [-user <uuid>] [-token] [-all|-documents] [-file <path>] [-list]")
		flag.PrintDefaults()
		return
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := logging.New(&cfg.Logging)

	owner := uuid.New()
	if *user != "" {
		if owner, err = uuid.Parse(*user); err != nil {
			log.Fatalf("invalid -user: %v", err)
		}
	}

	if *token {
		t, err := auth.New(&cfg.Auth, logger).IssueToken(owner)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Printf("user:  %s\ntoken: %s\n", owner, t)
	}

	if !*all && !*docs {
		return
	}

	ctx := context.Background()

	db, err := database.New(&cfg.Database, migrations.FS, logger)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Connection().Close()

	if err := db.Health(ctx); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if _, err := database.Migrate(cfg.Database.Dsn(), migrations.FS, "."); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	blobs, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}

	sys := documents.New(
		documents.NewStore(db.Connection()),
		blobs,
		logger,
		cfg.API.Pagination,
		documents.WithMaxUploadSize(cfg.Storage.MaxUploadSizeBytes()),
	)

	if seeder, ok := getSeeder("documents"); ok {
		ds := seeder.(*DocumentSeeder)
		ds.SetOwner(owner)
		if *file != "" {
			ds.SetFile(*file)
		}
	}

	if *all {
		err = runAllSeeders(ctx, sys)
	} else {
		err = runSeeder(ctx, sys, "documents")
	}
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	fmt.Println("seeding completed successfully")
}
