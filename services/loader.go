package services

import (
	"context"
	"fmt"

	"vehicle-dashboard/models"
	"vehicle-dashboard/storage"
	"vehicle-dashboard/utils"
)

// DatasetLoader reads a raw source and types it into a RecordSet.
type DatasetLoader struct {
	source  storage.RawSource
	cleaner *Cleaner
	logger  *utils.Logger
}

// NewDatasetLoader creates a loader over source.
func NewDatasetLoader(source storage.RawSource, logger *utils.Logger) *DatasetLoader {
	return &DatasetLoader{source: source, cleaner: NewCleaner(logger), logger: logger}
}

// Load returns a fresh RecordSet. Every failure wraps models.ErrDataUnavailable.
func (l *DatasetLoader) Load(ctx context.Context) (*models.RecordSet, error) {
	raw, err := l.source.ReadRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	rs, err := l.cleaner.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	l.logger.Debug("[loader] Loaded %d records", rs.Len())
	return rs, nil
}
