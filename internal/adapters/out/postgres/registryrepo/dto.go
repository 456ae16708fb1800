// Package registryrepo reads couriers, requesters and the block list from
// PostgreSQL. Registration writes these tables; this service only blocks.
package registryrepo

import "time"

type CourierDTO struct {
	ID   int64 `gorm:"primaryKey;autoIncrement:false"`
	Name string
}

func (CourierDTO) TableName() string {
	return "couriers"
}

type RequesterDTO struct {
	ID     int64 `gorm:"primaryKey;autoIncrement:false"`
	Name   string
	Tariff string
}

func (RequesterDTO) TableName() string {
	return "requesters"
}

type BlockedCourierDTO struct {
	CourierID int64 `gorm:"primaryKey;autoIncrement:false"`
	BlockedAt time.Time
}

func (BlockedCourierDTO) TableName() string {
	return "blocked_couriers"
}
