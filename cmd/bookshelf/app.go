package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bookshelf/internal/apiclient"
	"bookshelf/internal/authclient"
	"bookshelf/internal/bookclient"
	"bookshelf/internal/config"
	"bookshelf/internal/cover"
	"bookshelf/internal/session"
	"bookshelf/internal/util"
	"bookshelf/internal/view"
	"bookshelf/pkg/ai"
	"bookshelf/pkg/storage"
	"bookshelf/pkg/store"
)

// app holds the wired client for one command invocation.
type app struct {
	cfg      config.FileConfig
	logger   *slog.Logger
	store    store.Store
	session  *session.Manager
	auth     *authclient.Client
	books    *bookclient.Client
	covers   *cover.Generator
	archiver *cover.Archiver
}

func newApp(ctx context.Context, cfgPath string, ephemeral bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := util.InitLoggerTo(os.Stderr, cfg.LogLevel)
	timeout, err := config.ParseTimeout(cfg.Timeout)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg.Session, ephemeral)
	if err != nil {
		return nil, err
	}
	mgr, err := session.NewManager(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	api := apiclient.NewClient(cfg.APIBaseURL, mgr, apiclient.WithTimeout(timeout), apiclient.WithLogger(logger))
	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		session: mgr,
		auth:    authclient.NewClient(api, mgr, logger),
		books:   bookclient.NewClient(api, logger),
	}

	var refiner ai.TextGenerator
	if cfg.Refiner.Enabled() {
		refiner, err = ai.NewTextGenerator(cfg.Refiner.Provider, cfg.Refiner.BaseURL, cfg.Refiner.APIKey, cfg.Refiner.Model)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init prompt refiner: %w", err)
		}
	}
	a.covers = cover.NewGenerator(cover.OpenAIImages(cfg.Images.BaseURL), refiner, logger)

	if cfg.Archive.Enabled() {
		objects, err := storage.NewMinioStore(ctx, cfg.Archive)
		if err != nil {
			logger.Warn("cover archive disabled", "err", err)
		} else {
			a.archiver = cover.NewArchiver(objects, logger)
		}
	}
	return a, nil
}

func openStore(cfg config.SessionConfig, ephemeral bool) (store.Store, error) {
	if ephemeral {
		return store.NewMemoryStore(), nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewFileStore(cfg.Path)
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close session store", "err", err)
	}
}

func (a *app) editorConfig() view.EditorConfig {
	cfg := view.EditorConfig{
		Books:            a.books,
		Sessions:         a.session,
		Covers:           a.covers,
		RejectDuplicates: a.cfg.RejectDuplicates,
		Logger:           a.logger,
	}
	if a.archiver != nil {
		cfg.Archiver = a.archiver
	}
	return cfg
}
