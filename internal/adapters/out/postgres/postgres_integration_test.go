package postgres_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/registryrepo"
	"dispatch/internal/adapters/out/postgres/rotationrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/rotation"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

type StateIntegrationTestSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
}

func (suite *StateIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := postgres.Open(dsn)
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres.Migrate(ctx, db))
	suite.Require().NoError(postgres.Migrate(ctx, db), "migrating twice is harmless")
}

func (suite *StateIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec(
		"TRUNCATE TABLE rotation_members, rotation_cursor, couriers, requesters, blocked_couriers, orders",
	).Error)
}

func (suite *StateIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *StateIntegrationTestSuite) TestOrderSequence_SurvivesTruncate() {
	ctx := context.Background()
	seq, err := postgres.NewOrderSequence(suite.db)
	suite.Require().NoError(err)

	first, err := seq.Next(ctx)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders").Error)
	second, err := seq.Next(ctx)
	suite.Require().NoError(err)

	suite.Greater(second, first)
}

func (suite *StateIntegrationTestSuite) TestRotation_EmptyLoad() {
	repo, err := rotationrepo.NewGormRotationRepository(suite.db)
	suite.Require().NoError(err)

	q, err := repo.Load(context.Background())

	suite.Require().NoError(err)
	suite.Zero(q.Size())
	suite.Zero(q.Cursor())
}

func (suite *StateIntegrationTestSuite) TestRotation_SaveAndLoad() {
	ctx := context.Background()
	repo, err := rotationrepo.NewGormRotationRepository(suite.db)
	suite.Require().NoError(err)

	q, err := rotation.RestoreQueue([]kernel.ParticipantID{5, 3, 9}, 2)
	suite.Require().NoError(err)
	suite.Require().NoError(repo.Save(ctx, q))

	loaded, err := repo.Load(ctx)
	suite.Require().NoError(err)
	suite.Equal([]kernel.ParticipantID{5, 3, 9}, loaded.Members())
	suite.Equal(2, loaded.Cursor())

	suite.True(q.Leave(3))
	suite.Require().NoError(repo.Save(ctx, q))

	loaded, err = repo.Load(ctx)
	suite.Require().NoError(err)
	suite.Equal([]kernel.ParticipantID{5, 9}, loaded.Members())
	suite.Zero(loaded.Cursor())
}

func (suite *StateIntegrationTestSuite) TestRegistry() {
	ctx := context.Background()
	suite.Require().NoError(suite.db.Create(&[]registryrepo.CourierDTO{
		{ID: 7, Name: "Anna"},
		{ID: 8},
	}).Error)
	suite.Require().NoError(suite.db.Create(&[]registryrepo.RequesterDTO{
		{ID: 100, Name: "Pizzeria", Tariff: "5/8"},
		{ID: 200, Name: "Sushi"},
	}).Error)

	reg, err := registryrepo.NewGormParticipantRegistry(suite.db)
	suite.Require().NoError(err)

	registered, err := reg.IsRegisteredWorker(ctx, 7)
	suite.Require().NoError(err)
	suite.True(registered)
	registered, err = reg.IsRegisteredWorker(ctx, 9)
	suite.Require().NoError(err)
	suite.False(registered)

	name, err := reg.WorkerDisplayName(ctx, 7)
	suite.Require().NoError(err)
	suite.Equal("Anna", name)
	name, err = reg.WorkerDisplayName(ctx, 8)
	suite.Require().NoError(err)
	suite.Equal("8", name)

	tariff, err := reg.RequesterTariff(ctx, 100)
	suite.Require().NoError(err)
	suite.Equal(5, tariff.Near())
	suite.Equal(8, tariff.Far())
	tariff, err = reg.RequesterTariff(ctx, 200)
	suite.Require().NoError(err)
	suite.Equal(kernel.DefaultTariff().Near(), tariff.Near())

	blocked, err := reg.IsBlocked(ctx, 7)
	suite.Require().NoError(err)
	suite.False(blocked)

	suite.Require().NoError(reg.Block(ctx, 7))
	suite.Require().NoError(reg.Block(ctx, 7))

	blocked, err = reg.IsBlocked(ctx, 7)
	suite.Require().NoError(err)
	suite.True(blocked)
}

func TestStateIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StateIntegrationTestSuite))
}
