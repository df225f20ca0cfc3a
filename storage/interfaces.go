package storage

import (
	"context"

	"vehicle-dashboard/models"
)

// RawSource is the interface any dataset backend must satisfy.
// Failures are reported wrapping models.ErrDataUnavailable.
type RawSource interface {
	ReadRaw(ctx context.Context) (*models.RawTable, error)
}
