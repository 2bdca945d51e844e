// Package app drives one extraction run per webhook trigger: admission gate,
// blob fetch, pipeline, result persistence.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"contracttext/internal/dedup"
	"contracttext/internal/extract"
	"contracttext/pkg/domain"
	"contracttext/pkg/storage"
	"contracttext/pkg/store"
)

// Trigger is the payload of one webhook delivery after the HTTP layer has
// flattened JSON/form/query sources.
type Trigger struct {
	ContractID string
	StatusHint string
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Store    store.ContractStore
	Blobs    storage.BlobFetcher
	Pipeline *extract.Pipeline
	Guard    dedup.Guard
	// RunTimeout bounds fetch+extract for one contract so a hung download or
	// OCR cannot leave the record stuck in "processing".
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// App processes contract extraction triggers.
type App struct {
	store      store.ContractStore
	blobs      storage.BlobFetcher
	pipeline   *extract.Pipeline
	guard      dedup.Guard
	runTimeout time.Duration
	logger     *slog.Logger
	group      singleflight.Group
	now        func() time.Time
}

func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("contract store required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob fetcher required")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("extraction pipeline required")
	}
	guard := cfg.Guard
	if guard == nil {
		guard = dedup.NewMemoryGuard()
	}
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		store:      cfg.Store,
		blobs:      cfg.Blobs,
		pipeline:   cfg.Pipeline,
		guard:      guard,
		runTimeout: timeout,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// ProcessContract runs the full admission + extraction flow for one trigger.
// Concurrent triggers for the same contract id collapse to a single run and
// share its outcome.
func (a *App) ProcessContract(ctx context.Context, trig Trigger) Outcome {
	if trig.ContractID == "" {
		return Outcome{Kind: OutcomeBadRequest, Message: "contract_id is required"}
	}
	// The webhook's own status hint is checked before any lookup: stale
	// deliveries for already-terminal contracts are the common case.
	if trig.StatusHint != "" && trig.StatusHint != string(domain.StatusProcessing) {
		return Outcome{
			Kind:       OutcomeSkippedHint,
			ContractID: trig.ContractID,
			Message:    fmt.Sprintf("skipped: webhook status is %s", trig.StatusHint),
		}
	}

	v, _, _ := a.group.Do(trig.ContractID, func() (any, error) {
		return a.run(ctx, trig.ContractID), nil
	})
	return v.(Outcome)
}

func (a *App) run(ctx context.Context, id string) Outcome {
	acquired, err := a.guard.TryAcquire(ctx, id)
	if err != nil {
		// Guard failures weaken duplicate suppression but never block a run.
		a.logger.Warn("dedup guard unavailable", "contract_id", id, "err", err)
	}
	if !acquired {
		return Outcome{
			Kind:       OutcomeSkippedDuplicate,
			ContractID: id,
			Message:    "skipped: another delivery is processing this contract",
		}
	}
	defer func() {
		if err := a.guard.Release(context.WithoutCancel(ctx), id); err != nil {
			a.logger.Warn("dedup guard release failed", "contract_id", id, "err", err)
		}
	}()

	contract, found, err := a.store.GetContract(ctx, id)
	if err != nil {
		return Outcome{Kind: OutcomePersistenceFailed, ContractID: id, Message: "contract lookup failed", Err: err}
	}
	if !found {
		return Outcome{Kind: OutcomeNotFound, ContractID: id, Message: "contract not found"}
	}
	// Double-check against the authoritative record; the hint may be stale or
	// another actor may have finished this contract already.
	if contract.UploadStatus != domain.StatusProcessing {
		return Outcome{
			Kind:       OutcomeSkippedStatus,
			ContractID: id,
			Message:    fmt.Sprintf("skipped: stored status is %s", contract.UploadStatus),
		}
	}
	if contract.StoragePath == "" {
		return Outcome{Kind: OutcomeBadRequest, ContractID: id, Message: "contract has no storage_path"}
	}

	runCtx, cancel := context.WithTimeout(ctx, a.runTimeout)
	defer cancel()

	data, err := a.blobs.Fetch(runCtx, contract.StoragePath)
	if err != nil {
		return a.fail(ctx, id, fmt.Errorf("download document: %w", err))
	}

	res, err := a.pipeline.Extract(runCtx, data, contract.DisplayName())
	if err != nil {
		return a.fail(ctx, id, err)
	}

	if err := a.store.SaveResult(ctx, id, store.ResultUpdate{
		RawText:     res.Text,
		Status:      domain.StatusCompleted,
		ProcessedAt: a.now().UTC(),
		Meta:        &res.Meta,
	}); err != nil {
		return Outcome{Kind: OutcomePersistenceFailed, ContractID: id, Message: "failed to persist extracted text", Err: err}
	}

	a.logger.Info("extraction completed",
		"contract_id", id,
		"pages", res.Meta.Pages,
		"ocr_pages", res.Meta.OCRPages,
		"text_length", len(res.Text),
	)
	return Outcome{
		Kind:       OutcomeCompleted,
		ContractID: id,
		Message:    "extraction successful",
		TextLength: len(res.Text),
	}
}

// fail records the failure on the contract so it never silently stays in
// "processing". The write is best-effort: if it also fails, both errors are
// surfaced and nothing is retried here.
func (a *App) fail(ctx context.Context, id string, cause error) Outcome {
	a.logger.Error("extraction failed", "contract_id", id, "err", cause)
	writeErr := a.store.SaveResult(context.WithoutCancel(ctx), id, store.ResultUpdate{
		RawText:     fmt.Sprintf("Failed: %s.", cause.Error()),
		Status:      domain.StatusFailed,
		ProcessedAt: a.now().UTC(),
	})
	if writeErr != nil {
		a.logger.Error("failure write did not persist", "contract_id", id, "err", writeErr)
		return Outcome{
			Kind:       OutcomeExtractionFailed,
			ContractID: id,
			Message:    fmt.Sprintf("extraction failed and status write failed: %s", writeErr),
			Err:        cause,
		}
	}
	return Outcome{Kind: OutcomeExtractionFailed, ContractID: id, Message: "extraction failed", Err: cause}
}
