package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"contracttext/pkg/domain"
)

// GormStore implements ContractStore using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and reconciles the contracts schema.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&ContractModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// GetContract returns the current record, reporting absence without error.
func (s *GormStore) GetContract(ctx context.Context, id string) (domain.Contract, bool, error) {
	var model ContractModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Contract{}, false, nil
		}
		return domain.Contract{}, false, fmt.Errorf("get contract: %w", err)
	}
	return contractFromModel(model), true, nil
}

// SaveResult writes the terminal outcome of a run. A write that matches no
// row is an error, not a no-op.
func (s *GormStore) SaveResult(ctx context.Context, id string, upd ResultUpdate) error {
	values := map[string]any{
		"raw_text":      upd.RawText,
		"upload_status": string(upd.Status),
		"processed_at":  upd.ProcessedAt,
		"updated_at":    time.Now().UTC(),
	}
	if upd.Meta != nil {
		meta, err := json.Marshal(upd.Meta)
		if err != nil {
			return fmt.Errorf("marshal extraction meta: %w", err)
		}
		values["extraction_meta"] = meta
	}
	res := s.db.WithContext(ctx).Model(&ContractModel{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("save result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save result for %s: %w", id, ErrNoRowsUpdated)
	}
	return nil
}

func contractFromModel(m ContractModel) domain.Contract {
	c := domain.Contract{
		ID:           m.ID,
		FileName:     m.FileName,
		StoragePath:  m.StoragePath,
		UploadStatus: domain.UploadStatus(m.UploadStatus),
		ProcessedAt:  m.ProcessedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.RawText != nil {
		c.RawText = *m.RawText
	}
	return c
}
