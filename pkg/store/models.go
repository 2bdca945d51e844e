package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM model for the contracts table. The table is owned by the upload
// service; AutoMigrate here only reconciles the columns this service touches.
type ContractModel struct {
	ID             string `gorm:"primaryKey"`
	FileName       string
	StoragePath    string
	UploadStatus   string `gorm:"not null;index"`
	RawText        *string
	ExtractionMeta datatypes.JSON
	ProcessedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (ContractModel) TableName() string { return "contracts" }
