// Package postgres opens the GORM connection, migrates the schema and hands
// out order ids from a database sequence.
package postgres

import (
	"context"
	"fmt"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/registryrepo"
	"dispatch/internal/adapters/out/postgres/rotationrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const orderIDSequence = "order_id_seq"

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

// Open connects with error translation on, which the repositories rely on.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Migrate creates every table the adapters use and the order id sequence.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&rotationrepo.MemberDTO{},
		&rotationrepo.CursorDTO{},
		&registryrepo.CourierDTO{},
		&registryrepo.RequesterDTO{},
		&registryrepo.BlockedCourierDTO{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := db.Exec("CREATE SEQUENCE IF NOT EXISTS " + orderIDSequence).Error; err != nil {
		return fmt.Errorf("create order id sequence: %w", err)
	}
	return nil
}

var _ ports.OrderSequence = (*OrderSequence)(nil)

// OrderSequence draws ids from a PostgreSQL sequence, so they keep
// increasing when the orders table is emptied.
type OrderSequence struct {
	db *gorm.DB
}

func NewOrderSequence(db *gorm.DB) (*OrderSequence, error) {
	if db == nil {
		return nil, errs.NewValueIsRequiredError("db")
	}
	return &OrderSequence{db: db}, nil
}

func (s *OrderSequence) Next(ctx context.Context) (kernel.OrderID, error) {
	var next int64
	if err := s.db.WithContext(ctx).Raw("SELECT nextval('" + orderIDSequence + "')").Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("next order id: %w", err)
	}
	return kernel.NewOrderID(next)
}
