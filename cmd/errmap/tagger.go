package main

import (
	"log/slog"

	"github.com/learnercorpus/errmap/internal/config"
	"github.com/learnercorpus/errmap/internal/tagger"
)

// newTagger builds the UDPipe client described by cfg, wrapped in the disk
// cache when enabled. The bare client is returned alongside for reporting.
func newTagger(cfg *config.Cfg) (tagger.Tagger, *tagger.UDPipe, error) {
	eps, err := tagger.NewEndpoints(cfg.TaggerURLs)
	if err != nil {
		return nil, nil, err
	}
	client := tagger.NewUDPipe(eps, tagger.Options{
		Model:          cfg.TaggerModel,
		ConnectTimeout: cfg.TaggerConnectTimeout,
		ReadTimeout:    cfg.TaggerReadTimeout,
		MaxAttempts:    cfg.TaggerMaxAttempts,
	})
	slog.Info("tagger configured",
		"model", cfg.TaggerModel,
		"endpoints", eps.Len(),
		"max_attempts", cfg.TaggerMaxAttempts,
	)
	if !cfg.CacheEnabled {
		return client, client, nil
	}
	cache, err := tagger.NewCache(cfg.CacheDir, cfg.TaggerModel, client)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("tagger cache enabled", "dir", cfg.CacheDir)
	return cache, client, nil
}
