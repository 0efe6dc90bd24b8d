package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/erazemk/kitshelf/internal/auth"
	"github.com/erazemk/kitshelf/internal/config"
	"github.com/erazemk/kitshelf/internal/store"
)

func cmdToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)

	var user string
	fs.StringVar(&user, "user", "", "")
	fs.StringVar(&user, "u", "", "")

	var email string
	fs.StringVar(&email, "email", "", "")
	fs.StringVar(&email, "e", "", "")

	var ttl time.Duration
	fs.DurationVar(&ttl, "ttl", auth.TokenExpiry, "")

	var rotate bool
	fs.BoolVar(&rotate, "rotate", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: kitshelf token -u <user id> [flags]

Mints a bearer token signed with the configured secret, or with the
database secret when none is configured.

Flags:
  -u, -user <id>          user id to put in the subject claim (required)
  -e, -email <address>    email claim (default: none)
  -ttl <duration>         token lifetime (default: 168h)
  -rotate                 replace the database secret first, invalidating
                          every token it signed
`+configFlagsUsage+`  -h, -help               show this help and exit
`)
	}

	if err := parseFlags(fs, args, false); err != nil {
		return err
	}
	if user == "" {
		fs.Usage()
		return fmt.Errorf("-user is required")
	}

	cfg, err := config.Load(flags, nil)
	if err != nil {
		return err
	}

	// Stdout carries only the token.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	database, err := openDatabase(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if rotate {
		if cfg.Auth.Secret != "" {
			return fmt.Errorf("-rotate only applies to the database secret, but an auth secret is configured")
		}
		if _, err := store.RotateJWTSecret(ctx, database); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "database secret rotated; previously minted tokens no longer verify")
	}

	verifier, err := newVerifier(ctx, database, cfg.Auth)
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken(verifier, user, email, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
