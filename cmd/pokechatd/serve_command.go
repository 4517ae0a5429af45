package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pokechat/internal/cache"
	"pokechat/internal/chat"
	"pokechat/internal/config"
	"pokechat/internal/identify"
	"pokechat/internal/imagehash"
	"pokechat/internal/logging"
	"pokechat/internal/pokeapi"
	"pokechat/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the PokeChat HTTP service",
		Long: `Run the PokeChat HTTP service until interrupted.

The reference table is loaded from reference.dir when configured, otherwise
it is warmed from PokeAPI sprites at startup. A failed warm is logged and the
service starts with an empty table; /identify then reports no matches until
restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	client, err := newPokeAPIClient(cfg, store)
	if err != nil {
		return fmt.Errorf("create pokeapi client: %w", err)
	}

	set, err := buildReferenceSet(signalCtx, cfg, client, logger)
	if err != nil {
		return fmt.Errorf("build reference table: %w", err)
	}
	logger.Info("reference table ready",
		logging.Int("entries", set.Len()),
		logging.String("method", set.Method().String()),
		logging.Int("size", set.Size()),
	)

	identifySvc, err := identify.NewService(cfg, set, client, logger)
	if err != nil {
		return fmt.Errorf("create identify service: %w", err)
	}
	chatSvc := chat.NewService(cfg, client, store, logger)

	srv, err := server.New(cfg, server.Deps{
		Logger:   logger,
		PokeAPI:  client,
		Chat:     chatSvc,
		Identify: identifySvc,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	return srv.Run(signalCtx)
}

func newPokeAPIClient(cfg *config.Config, store cache.Cache) (*pokeapi.Client, error) {
	opts := []pokeapi.Option{
		pokeapi.WithUserAgent(cfg.PokeAPI.UserAgent),
		pokeapi.WithMaxFetchBytes(cfg.Identify.MaxUploadBytes),
	}
	if cfg.PokeAPI.Timeout > 0 {
		opts = append(opts, pokeapi.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.PokeAPI.Timeout) * time.Second,
		}))
	}
	if store != nil && cfg.Cache.TTLSeconds > 0 {
		opts = append(opts, pokeapi.WithCache(store, time.Duration(cfg.Cache.TTLSeconds)*time.Second))
	}
	return pokeapi.New(cfg.PokeAPI.BaseURL, cfg.PokeAPI.SpriteBaseURL, opts...)
}

// buildReferenceSet loads the reference table from a local directory when one
// is configured, otherwise warms it from PokeAPI sprites. A broken local
// directory is fatal; a failed warm degrades to an empty table so the HTTP
// surface still comes up.
func buildReferenceSet(ctx context.Context, cfg *config.Config, client pokeapi.API, logger *slog.Logger) (*identify.Set, error) {
	method, err := imagehash.ParseMethod(cfg.Hash.Method)
	if err != nil {
		return nil, err
	}

	if cfg.Reference.Dir != "" {
		return identify.LoadDir(cfg.Reference.Dir, method, cfg.Hash.Size, logger)
	}

	warmCtx := ctx
	if cfg.Reference.WarmTimeout > 0 {
		var cancel context.CancelFunc
		warmCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Reference.WarmTimeout)*time.Second)
		defer cancel()
	}

	set, err := identify.Warm(warmCtx, client, cfg, logger)
	if err != nil {
		logger.Warn("reference warm failed, identification starts empty", logging.Error(err))
		return identify.EmptySet(method, cfg.Hash.Size), nil
	}
	return set, nil
}
