// main.go
//
// Entry point for the digit guessing backend.
//
//	digits [serve]                         → HTTP API (default)
//	digits play [-length 4] [-repeat] ...  → play in the terminal
//
// Settings come from the environment (.env is loaded when present).

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/digits/apps/go-server/assets"
	"github.com/robalobadob/digits/apps/go-server/internal/auth"
	"github.com/robalobadob/digits/apps/go-server/internal/config"
	"github.com/robalobadob/digits/apps/go-server/internal/console"
	"github.com/robalobadob/digits/apps/go-server/internal/game"
	"github.com/robalobadob/digits/apps/go-server/internal/httpserver"
	"github.com/robalobadob/digits/apps/go-server/internal/scores"
	"github.com/robalobadob/digits/apps/go-server/internal/storage"
	"github.com/robalobadob/digits/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		// Ctrl-C in play mode keeps its default behaviour
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = serve(ctx, cfg)
		stop()
	case "play":
		err = play(context.Background(), args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve or play)\n", cmd)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("exited")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	db, err := storage.OpenMigrated(cfg.DBPath, assets.Migrations())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if cfg.JWTSecret == "dev_secret_change_me" && cfg.Production() {
		log.Warn().Msg("JWT_SECRET is the development default")
	}

	games := store.NewMemoryStore()
	srv := httpserver.New(httpserver.Deps{
		Config: cfg,
		Store:  games,
		Scores: scores.NewStore(db),
		Users:  auth.NewUsers(db),
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL()),
	})
	go srv.Janitor(ctx, cfg.SessionTTL, time.Minute)

	log.Info().Str("port", cfg.Port).Str("db", cfg.DBPath).Msg("starting digits server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func play(ctx context.Context, args []string) error {
	def := game.DefaultConfig()
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	length := fs.Int("length", def.Length, fmt.Sprintf("number of digits (%d-%d)", game.MinLength, game.MaxLength))
	repeat := fs.Bool("repeat", def.AllowDuplicates, "allow repeated digits")
	hint := fs.String("hint", string(def.HintMode), "position-only or position-and-digit")
	difficulty := fs.String("difficulty", string(def.Difficulty), "easy (per-digit marks) or hard (counts only)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := game.Config{
		Length:          *length,
		AllowDuplicates: *repeat,
		HintMode:        game.HintMode(*hint),
		Difficulty:      game.Difficulty(*difficulty),
	}
	return console.Play(ctx, os.Stdin, os.Stdout, cfg)
}
