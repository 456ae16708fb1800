// Package rotationrepo persists the courier rotation in PostgreSQL: one row
// per member in rotation order plus a single cursor row.
package rotationrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/rotation"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.RotationRepository = (*GormRotationRepository)(nil)

type MemberDTO struct {
	Position  int   `gorm:"primaryKey;autoIncrement:false"`
	CourierID int64 `gorm:"uniqueIndex;not null"`
}

func (MemberDTO) TableName() string {
	return "rotation_members"
}

// CursorDTO has exactly one row, ID 1.
type CursorDTO struct {
	ID     int `gorm:"primaryKey;autoIncrement:false"`
	Cursor int `gorm:"not null"`
}

func (CursorDTO) TableName() string {
	return "rotation_cursor"
}

const cursorRowID = 1

type GormRotationRepository struct {
	db *gorm.DB
}

func NewGormRotationRepository(db *gorm.DB) (*GormRotationRepository, error) {
	if db == nil {
		return nil, errs.NewValueIsRequiredError("db")
	}
	return &GormRotationRepository{db: db}, nil
}

func (r *GormRotationRepository) Load(ctx context.Context) (*rotation.Queue, error) {
	db := r.db.WithContext(ctx)

	var rows []MemberDTO
	if err := db.Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}

	var cursor CursorDTO
	err := db.Take(&cursor, "id = ?", cursorRowID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	members := make([]kernel.ParticipantID, len(rows))
	for i, row := range rows {
		members[i] = kernel.ParticipantID(row.CourierID)
	}
	return rotation.RestoreQueue(members, cursor.Cursor)
}

// Save replaces membership and cursor in one transaction.
func (r *GormRotationRepository) Save(ctx context.Context, queue *rotation.Queue) error {
	members := queue.Members()
	rows := make([]MemberDTO, len(members))
	for i, id := range members {
		rows[i] = MemberDTO{Position: i, CourierID: id.Int64()}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&MemberDTO{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"cursor"}),
		}).Create(&CursorDTO{ID: cursorRowID, Cursor: queue.Cursor()}).Error
	})
}
