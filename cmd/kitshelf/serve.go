package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/kitshelf/internal/api"
	"github.com/erazemk/kitshelf/internal/auth"
	"github.com/erazemk/kitshelf/internal/config"
	"github.com/erazemk/kitshelf/internal/db"
	"github.com/erazemk/kitshelf/internal/imaging"
	"github.com/erazemk/kitshelf/internal/metric"
	"github.com/erazemk/kitshelf/internal/store"
	"github.com/erazemk/kitshelf/internal/upload"
)

const configFlagsUsage = `  -d, -db <path>          SQLite database path (default: kitshelf.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -public-url <url>       prefix of media URLs (default: root-relative)
  -auth-secret <secret>   HS256 secret shared with the identity provider
                          (default: generated and kept in the database)
  -auth-issuer <iss>      required token issuer (default: any)
  -auth-audience <aud>    required token audience (default: any)
`

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, "Usage: kitshelf serve [flags]\n\nFlags:\n"+configFlagsUsage+
			"  -h, -help               show this help and exit\n\n"+
			"Every flag can also be set through KITSHELF_* environment variables,\n"+
			"e.g. KITSHELF_DB or KITSHELF_AUTH_SECRET. Flags take precedence.\n")
	}

	if err := parseFlags(fs, args, false); err != nil {
		return err
	}

	cfg, err := config.Load(flags, nil)
	if err != nil {
		return err
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := openDatabase(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	verifier, err := newVerifier(context.Background(), database, cfg.Auth)
	if err != nil {
		return err
	}

	reg := metric.New()
	blobs := store.NewBlobStore(database, cfg.PublicURL)
	handler := api.NewRouter(api.Deps{
		DB:    database,
		Blobs: blobs,
		Uploader: &upload.Orchestrator{
			Deriver: &imaging.Deriver{Observer: reg.Imaging()},
			Storage: blobs,
			Logger:  slog.Default(),
		},
		Verifier: verifier,
		Logger:   slog.Default(),
		Metrics:  reg,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "public_url", cfg.PublicURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// openDatabase opens the database at path and brings its schema up to date.
func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", path)
	return database, nil
}

// newVerifier builds the token verifier, falling back to the secret kept in
// the database when none is configured.
func newVerifier(ctx context.Context, database *sql.DB, cfg config.Auth) (auth.Verifier, error) {
	v := auth.Verifier{Secret: cfg.Secret, Issuer: cfg.Issuer, Audience: cfg.Audience}
	if v.Secret != "" {
		return v, nil
	}

	secret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return v, fmt.Errorf("loading jwt secret: %w", err)
	}
	slog.Warn("no auth secret configured, using the database secret; only locally minted tokens will verify")
	v.Secret = secret
	return v, nil
}
