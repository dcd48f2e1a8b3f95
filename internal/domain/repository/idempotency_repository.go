package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
)

// IdempotencyRepository stores responses of replayable write requests
type IdempotencyRepository interface {
	// Get returns the record for key on endpoint, or nil
	Get(ctx context.Context, userID uuid.UUID, endpoint, key string) (*entity.IdempotencyKey, error)
	// Save stores a record, replacing an expired one with the same scope
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired purges expired records and returns how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}
