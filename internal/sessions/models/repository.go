package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AuthRepository is a gorm-backed AuthenticationToken store, implementing
// internal/sessions.AuthenticationRepository without that package needing to
// import gorm directly (it consumes the interface, not this type).
type AuthRepository struct {
	db *gorm.DB
}

// NewAuthRepository wraps db for authentication-token access.
func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// Query mirrors internal/sessions.AuthTokenQuery; kept distinct from that
// package's type so models stays free of a core dependency.
type Query struct {
	AccessToken string
	UserId      string
	DeviceId    string
	IsActive    *bool
	Limit       int
}

// Get returns tokens matching q, newest first, and the total matched count.
func (r *AuthRepository) Get(ctx context.Context, q Query) ([]*AuthenticationToken, int64, error) {
	tx := r.db.WithContext(ctx).Model(&AuthenticationToken{})
	if q.AccessToken != "" {
		tx = tx.Where("access_token = ?", q.AccessToken)
	}
	if q.UserId != "" {
		tx = tx.Where("user_id = ?", q.UserId)
	}
	if q.DeviceId != "" {
		tx = tx.Where("device_id = ?", q.DeviceId)
	}
	if q.IsActive != nil {
		tx = tx.Where("is_active = ?", *q.IsActive)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := tx.Order("date_created DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []*AuthenticationToken
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Create persists a new token row.
func (r *AuthRepository) Create(ctx context.Context, token *AuthenticationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// Update saves changes to an existing token row.
func (r *AuthRepository) Update(ctx context.Context, token *AuthenticationToken) error {
	return r.db.WithContext(ctx).Save(token).Error
}

// DeviceRepository is a gorm-backed DeviceCapabilities store, implementing
// internal/sessions.DeviceManager's persistence half.
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository wraps db for device-capability access.
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert creates or updates the capability row for deviceId.
func (r *DeviceRepository) Upsert(ctx context.Context, dev *DeviceCapabilities) error {
	dev.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Where("device_id = ?", dev.DeviceId).
		Assign(dev).
		FirstOrCreate(&DeviceCapabilities{DeviceId: dev.DeviceId}).Error
}

// Get returns the capability row for deviceId, or nil if none exists.
func (r *DeviceRepository) Get(ctx context.Context, deviceId string) (*DeviceCapabilities, error) {
	var dev DeviceCapabilities
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceId).First(&dev).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dev, nil
}
