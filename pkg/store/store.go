package store

import (
	"context"
	"errors"
	"time"

	"contracttext/pkg/domain"
)

// ErrNoRowsUpdated reports a result write that matched no contract row. The
// orchestrator must surface this, never swallow it.
var ErrNoRowsUpdated = errors.New("store: update affected no rows")

// ResultUpdate carries the terminal outcome of one run. RawText holds the
// extracted envelope on success and a "Failed: ..." diagnostic on failure.
type ResultUpdate struct {
	RawText     string
	Status      domain.UploadStatus
	ProcessedAt time.Time
	Meta        *domain.ExtractionMeta
}

// ContractStore defines the persistence operations the extraction run needs.
// Contract creation and the pending->processing transition belong to the
// upload flow, so they are intentionally absent here.
type ContractStore interface {
	GetContract(ctx context.Context, id string) (domain.Contract, bool, error)
	SaveResult(ctx context.Context, id string, upd ResultUpdate) error
}
