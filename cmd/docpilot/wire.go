package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docpilot/internal/adapters/driven/ai"
	"github.com/custodia-labs/docpilot/internal/adapters/driven/auth"
	"github.com/custodia-labs/docpilot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docpilot/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/cli"
	"github.com/custodia-labs/docpilot/internal/connectors/google/drive"
	"github.com/custodia-labs/docpilot/internal/connectors/onedrive"
	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/services"
	"github.com/custodia-labs/docpilot/internal/logger"
	"github.com/custodia-labs/docpilot/internal/normalisers"
	"github.com/custodia-labs/docpilot/internal/normalisers/integrity"
	"github.com/custodia-labs/docpilot/internal/postprocessors/chunker"
)

// bootstrap builds every service from the resolved settings. Failures in
// the source or AI layers are recorded on the returned Services so the
// commands that do not need them keep working.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsSvc := services.NewSettingsService(store)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	logger.Debug("config dir %s, data dir %s", store.Dir(), settings.DataDir)

	svc := &cli.Services{
		Settings:       settingsSvc,
		VectorStoreDir: settings.VectorStoreDir(),
		Auth:           loginFor(settingsSvc, store.Dir()),
		Probe: func(ctx context.Context) []ai.ProviderStatus {
			current, err := settingsSvc.Get()
			if err != nil {
				return []ai.ProviderStatus{{Kind: "config", Err: err}}
			}
			return ai.Probe(ctx, current)
		},
	}

	documents := services.NewDocumentService(settings.ProcessedDir())
	extractor := services.NewExtractor(normalisers.Defaults(), settings.DocsDir(), settings.ProcessedDir())
	svc.Documents = documents
	svc.Extraction = extractor

	source, err := newSource(ctx, settings, store.Dir())
	if err != nil {
		logger.Debug("document source unavailable: %v", err)
		svc.SourceErr = err
	} else {
		svc.Ingest = services.NewIngester(source, integrity.New(), settings.DocsDir(),
			services.WithFolder(settings.Source.FolderPath),
			services.WithRecursive(settings.Source.Recursive),
			services.WithExcludes(settings.Source.Excludes...),
		)
	}
	svc.Consolidate = services.NewConsolidator(documents, source, settings.DataDir, settings.Source.UploadFolder)

	models := ai.Init(ctx, settings)
	svc.Close = models.Close
	svc.AIErr = models.Err()
	if models.EmbeddingErr != nil {
		return svc, nil
	}

	vectors := flat.NewStore(settings.VectorStoreDir())
	builder := services.NewIndexBuilder(
		settings.ProcessedDir(),
		chunker.New(
			chunker.WithChunkSize(settings.Chunking.Size),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
		models.Embedding,
		vectors,
		settings.Embedding.BatchSize,
	)
	svc.Index = builder

	if models.LLMErr != nil {
		svc.Maintenance = services.NewMaintenance(extractor, builder, nil)
		return svc, nil
	}

	orchestrator := services.NewOrchestrator(
		models.Embedding,
		models.LLM,
		vectors,
		func() driven.VectorIndex { return flat.New() },
		services.WithTopK(settings.Retrieval.TopK),
		services.WithGeneration(settings.LLM.Temperature, settings.LLM.MaxTokens),
	)
	svc.Answer = orchestrator
	svc.Maintenance = services.NewMaintenance(extractor, builder, orchestrator)
	return svc, nil
}

// newSource builds the configured document source. The returned interface
// is nil whenever err is set.
func newSource(ctx context.Context, settings domain.Settings, configDir string) (driven.DocumentSource, error) {
	tokens, err := auth.NewTokenProvider(settings.Source, configDir)
	if err != nil {
		return nil, err
	}

	switch settings.Source.Type {
	case domain.SourceGoogleDrive:
		src, err := drive.New(ctx, tokens, drive.WithTimeout(settings.RequestTimeout))
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return onedrive.New(tokens, onedrive.WithTimeout(settings.RequestTimeout)), nil
	}
}

// loginFor returns a factory for the device-code login. Settings are read
// again on each call so a client secret stored by the login command is used.
func loginFor(settingsSvc *services.SettingsService, configDir string) func() (cli.Authenticator, error) {
	return func() (cli.Authenticator, error) {
		settings, err := settingsSvc.Get()
		if err != nil {
			return nil, err
		}
		src := settings.Source
		if src.Type != domain.SourceOneDrive {
			return nil, errors.New("interactive login is only needed for onedrive; set GOOGLE_ACCESS_TOKEN for gdrive")
		}
		if src.ClientID == "" {
			return nil, fmt.Errorf("%w: set microsoft.client_id or MICROSOFT_CLIENT_ID", domain.ErrAuthRequired)
		}
		return auth.NewDeviceCodeProvider(src.ClientID, src.ClientSecret, src.TenantID, auth.NewTokenCache(configDir)), nil
	}
}
