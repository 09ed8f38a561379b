package cli

import (
	"fmt"
	"time"

	"cortex/config"
	"cortex/internal/adapter/cache"
	"cortex/internal/adapter/extract"
	"cortex/internal/adapter/fs"
	"cortex/internal/adapter/llm"
	"cortex/internal/adapter/retriever"
	"cortex/internal/adapter/store"
	"cortex/internal/logger"
	"cortex/internal/port"
	"cortex/internal/usecase"
)

// openLibrary opens the bolt library under the root directory, creating it
// on first use.
func openLibrary() (*store.BoltStore, error) {
	cfg := GetConfig()
	if err := cfg.EnsureDataDir(GetRootDir()); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(cfg.LibraryPath(GetRootDir()))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return st, nil
}

func newRetriever(cfg *config.Config) port.Retriever {
	return retriever.NewFromConfig(cfg.Retrieve)
}

func newRetrieve(cfg *config.Config) *usecase.RetrieveUseCase {
	return usecase.NewRetrieveUseCase(newRetriever(cfg), cfg.Retrieve.MinTextChars)
}

// newCachedRetrieve is newRetrieve behind the search cache, for long-running
// processes.
func newCachedRetrieve(cfg *config.Config) *usecase.RetrieveUseCase {
	if cfg.Server.CacheSize == 0 {
		return newRetrieve(cfg)
	}
	qc := cache.NewQueryCache(cfg.Server.CacheSize, time.Duration(cfg.Server.CacheTTLSeconds)*time.Second)
	return usecase.NewRetrieveUseCase(cache.NewCachedRetriever(newRetriever(cfg), qc), cfg.Retrieve.MinTextChars)
}

func newIngest(cfg *config.Config, st port.DocumentStore) *usecase.IngestUseCase {
	walker := fs.NewWalker(cfg.Sources.Includes, cfg.Sources.Excludes, cfg.Sources.MaxFileBytes)
	return usecase.NewIngestUseCase(st, walker, extract.NewRegistry())
}

// newModel resolves the configured model. It returns nil when offline is
// set or the model has no usable credentials.
func newModel(cfg *config.Config, override string, offline bool) port.LLM {
	if offline {
		return nil
	}
	lc := cfg.LLM
	if override != "" {
		lc.Model = override
	}
	model := llm.ResolveModel(lc)
	client := llm.Usable(model, lc)
	if client == nil {
		logger.Info("model %s is not usable, answering offline", model)
		return nil
	}
	logger.Debug("using model %s", client.ModelName())
	return client
}

func newChat(cfg *config.Config, retrieve *usecase.RetrieveUseCase, model port.LLM) *usecase.ChatUseCase {
	return usecase.NewChatUseCase(retrieve, model, usecase.ChatOptions{
		MaxHits:         cfg.Retrieve.ChatMaxHits,
		PreviewChars:    cfg.Chat.PreviewChars,
		OfflineBullets:  cfg.Chat.OfflineBullets,
		FallbackSources: cfg.Chat.FallbackSources,
	})
}

func newStudio(cfg *config.Config, retrieve *usecase.RetrieveUseCase, model port.LLM) *usecase.StudioUseCase {
	return usecase.NewStudioUseCase(retrieve, model, usecase.StudioOptions{
		MaxHits:             cfg.Retrieve.StudioMaxHits,
		ContextChars:        cfg.Studio.ContextChars,
		FallbackSources:     cfg.Studio.FallbackSources,
		FallbackSourceChars: cfg.Studio.FallbackSourceChars,
	})
}
