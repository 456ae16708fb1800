package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// DefaultRolloverSchedule fires at 23:59:00 every day.
const DefaultRolloverSchedule = "0 59 23 * * *"

type (
	ReportBuilder interface {
		Handle(ctx context.Context, query queries.GetReportQuery) (queries.Report, error)
	}

	DayCloser interface {
		Rollover(ctx context.Context) error
	}

	AmendmentClearer interface {
		Clear() int
	}
)

type RolloverConfig struct {
	Schedule string
	Location *time.Location
	Admin    kernel.ParticipantID
}

// RolloverJob closes the business day: the administrator gets the day's
// summary, then the ledger is emptied and pending amendments are dropped.
type RolloverJob struct {
	reports    ReportBuilder
	notifier   ports.Notifier
	day        DayCloser
	amendments AmendmentClearer

	schedule string
	loc      *time.Location
	admin    kernel.ParticipantID
	now      func() time.Time

	cron   *cron.Cron
	logger *slog.Logger
}

func NewRolloverJob(
	cfg RolloverConfig,
	reports ReportBuilder,
	notifier ports.Notifier,
	day DayCloser,
	amendments AmendmentClearer,
	logger *slog.Logger,
) *RolloverJob {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRolloverSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RolloverJob{
		reports:    reports,
		notifier:   notifier,
		day:        day,
		amendments: amendments,
		schedule:   cfg.Schedule,
		loc:        cfg.Location,
		admin:      cfg.Admin,
		now:        time.Now,
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location)),
		logger:     logger.With("component", "rollover_job"),
	}
}

func (j *RolloverJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.Run(context.Background()); err != nil {
			j.logger.Error("Rollover failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.Info("Rollover job started", "schedule", j.schedule, "location", j.loc.String())
	return nil
}

func (j *RolloverJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Rollover job stopped")
}

// Run performs one rollover. A summary that cannot be built or delivered
// does not hold the day open.
func (j *RolloverJob) Run(ctx context.Context) error {
	now := j.now().In(j.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	j.sendSummary(ctx, start, end)

	if err := j.day.Rollover(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	dropped := j.amendments.Clear()

	j.logger.InfoContext(ctx, "Business day closed", "day", start.Format(time.DateOnly), "dropped_amendments", dropped)
	return nil
}

func (j *RolloverJob) sendSummary(ctx context.Context, start, end time.Time) {
	if j.admin == 0 {
		return
	}

	query, err := queries.NewGetReportQuery(start, end, nil)
	if err != nil {
		j.logger.ErrorContext(ctx, "Daily summary query invalid", "error", err)
		return
	}
	report, err := j.reports.Handle(ctx, query)
	if err != nil {
		j.logger.ErrorContext(ctx, "Daily summary not built", "error", err)
		return
	}

	if err = j.notifier.Send(ctx, ports.Message{
		Recipient: j.admin,
		Kind:      ports.MessageDailySummary,
		Attributes: map[string]string{
			"day":                start.Format(time.DateOnly),
			"total_packages":     strconv.Itoa(report.TotalPackages),
			"total_price":        strconv.Itoa(report.TotalPrice),
			"delivered_packages": strconv.Itoa(report.DeliveredPackages),
		},
	}); err != nil {
		j.logger.ErrorContext(ctx, "Daily summary not delivered", "error", err)
	}
}
