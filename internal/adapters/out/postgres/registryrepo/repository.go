package registryrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.ParticipantRegistry = (*GormParticipantRegistry)(nil)

type GormParticipantRegistry struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormParticipantRegistry(db *gorm.DB) (*GormParticipantRegistry, error) {
	if db == nil {
		return nil, errs.NewValueIsRequiredError("db")
	}
	return &GormParticipantRegistry{db: db, now: time.Now}, nil
}

func (r *GormParticipantRegistry) IsRegisteredWorker(ctx context.Context, id kernel.ParticipantID) (bool, error) {
	return r.exists(ctx, &CourierDTO{}, "id = ?", id.Int64())
}

func (r *GormParticipantRegistry) IsBlocked(ctx context.Context, id kernel.ParticipantID) (bool, error) {
	return r.exists(ctx, &BlockedCourierDTO{}, "courier_id = ?", id.Int64())
}

func (r *GormParticipantRegistry) WorkerDisplayName(ctx context.Context, id kernel.ParticipantID) (string, error) {
	var dto CourierDTO
	err := r.db.WithContext(ctx).Take(&dto, "id = ?", id.Int64()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && strings.TrimSpace(dto.Name) == "") {
		return id.String(), nil
	}
	if err != nil {
		return "", err
	}
	return dto.Name, nil
}

func (r *GormParticipantRegistry) RequesterTariff(ctx context.Context, id kernel.ParticipantID) (kernel.Tariff, error) {
	var dto RequesterDTO
	err := r.db.WithContext(ctx).Take(&dto, "id = ?", id.Int64()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && strings.TrimSpace(dto.Tariff) == "") {
		return kernel.DefaultTariff(), nil
	}
	if err != nil {
		return kernel.Tariff{}, err
	}

	tariff, err := kernel.ParseTariff(dto.Tariff)
	if err != nil {
		return kernel.Tariff{}, fmt.Errorf("requester %s: %w", id, err)
	}
	return tariff, nil
}

func (r *GormParticipantRegistry) Block(ctx context.Context, id kernel.ParticipantID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&BlockedCourierDTO{CourierID: id.Int64(), BlockedAt: r.now()}).Error
}

func (r *GormParticipantRegistry) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
