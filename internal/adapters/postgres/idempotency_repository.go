package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/campusdesk/auth-service/internal/domain"
	"github.com/campusdesk/auth-service/internal/ports"
)

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	var rec authIdempotencyModel
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	body := []byte{}
	if rec.ResponseBody != nil {
		body = []byte(*rec.ResponseBody)
	}
	return &ports.IdempotencyRecord{
		Key:          rec.IdempotencyKey,
		RequestHash:  rec.RequestHash,
		Status:       rec.Status,
		ResponseCode: rec.ResponseCode,
		ResponseBody: body,
		ExpiresAt:    rec.ExpiresAt,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	rec := authIdempotencyModel{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		Status:         "PENDING",
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return r.takeOverExpired(ctx, key, requestHash, expiresAt, now)
		}
		return err
	}
	return nil
}

// takeOverExpired claims a reservation whose deadline has passed without ever
// being completed. The guarded UPDATE keeps the claim atomic: of concurrent
// claimants, only one matches the stale row.
func (r *idempotencyRepository) takeOverExpired(ctx context.Context, key, requestHash string, expiresAt, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&authIdempotencyModel{}).
		Where("idempotency_key = ?", key).
		Where("status = ?", "PENDING").
		Where("expires_at < ?", now).
		Updates(map[string]any{
			"request_hash": requestHash,
			"status":       "PENDING",
			"expires_at":   expiresAt,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

func (r *idempotencyRepository) Release(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		Where("status = ?", "PENDING").
		Delete(&authIdempotencyModel{}).Error
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	body := string(responseBody)
	return r.db.WithContext(ctx).
		Model(&authIdempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"status":        "COMPLETED",
			"response_code": responseCode,
			"response_body": body,
			"updated_at":    at,
		}).Error
}
