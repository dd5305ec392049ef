package coreapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Scheduler generates weekly reports for all users once a day at a fixed
// off-peak hour. It runs in its own goroutine, decoupled from request
// handling; each user's report is an independent unit of work.
type Scheduler struct {
	db   *pgxpool.Pool
	hour int // UTC hour of day to run at
}

// NewScheduler returns a scheduler that fires daily at the given hour.
func NewScheduler(db *pgxpool.Pool, hour int) *Scheduler {
	return &Scheduler{db: db, hour: hour}
}

// trailingWeek returns the [today-6, today] window the job reports on.
func trailingWeek(today time.Time) (time.Time, time.Time) {
	today = today.UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -6), today
}

// Start launches the daily loop. It returns immediately; the loop stops when
// ctx is cancelled. A run already in progress finishes its current user
// before checking the context again.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for {
			next := s.nextRun(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Println("[scheduler] stopped")
				return
			case <-timer.C:
				if err := s.RunOnce(ctx); err != nil {
					log.Printf("[scheduler] run failed: %v", err)
				}
			}
		}
	}()
}

// nextRun returns the next occurrence of the configured hour after now.
// Anchored to UTC like the reporting window, so a host timezone never
// shifts the run relative to the week boundary.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	now = now.UTC()
	run := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// RunOnce walks all users and generates the trailing-week report for each
// user that is due one. A failure for one user is logged and does not stop
// the loop — partial job failure must never affect unrelated users.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	weekStart, weekEnd := trailingWeek(time.Now())

	users, err := queryMany[user](s.db, ctx, "SELECT * FROM users ORDER BY id", pgx.NamedArgs{})
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var generated, failed int
	for _, u := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		due, err := s.reportDue(ctx, u, weekStart)
		if err != nil {
			log.Printf("[scheduler] user %d: due check failed: %v", u.ID, err)
			failed++
			continue
		}
		if !due {
			continue
		}
		if _, err := generateWeeklyReport(ctx, s.db, u, weekStart, weekEnd); err != nil {
			log.Printf("[scheduler] user %d: report generation failed: %v", u.ID, err)
			failed++
			continue
		}
		generated++
	}

	log.Printf("[scheduler] run complete: %d generated, %d failed, %d users total",
		generated, failed, len(users))
	return nil
}

// GenerateAllReports builds the trailing-week report for every user,
// regardless of whether one already exists for the week. Used by the
// manual-report tool to force a refresh; the upsert makes reruns safe.
// Returns how many reports were generated and how many users failed.
func GenerateAllReports(ctx context.Context, db *pgxpool.Pool) (int, int, error) {
	weekStart, weekEnd := trailingWeek(time.Now())

	users, err := queryMany[user](db, ctx, "SELECT * FROM users ORDER BY id", pgx.NamedArgs{})
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}

	var generated, failed int
	for _, u := range users {
		if ctx.Err() != nil {
			return generated, failed, ctx.Err()
		}
		if _, err := generateWeeklyReport(ctx, db, u, weekStart, weekEnd); err != nil {
			log.Printf("[manual-report] user %d: report generation failed: %v", u.ID, err)
			failed++
			continue
		}
		generated++
	}
	return generated, failed, nil
}

// shouldReport is the due decision for one user and week. Skip when a
// report already exists for the week (so a second run in the same window
// generates nothing), when the user has no logs at all, or when the first
// logged day postdates the week start.
func shouldReport(hasReport bool, firstLog *time.Time, weekStart time.Time) bool {
	if hasReport || firstLog == nil {
		return false
	}
	return !firstLog.After(weekStart)
}

// reportDue fetches the inputs for shouldReport: whether a report row
// exists for (user, week_start) and the user's earliest logged day. The
// existence check is an idempotence guard, not a correctness guarantee —
// the upsert in generateWeeklyReport handles races.
func (s *Scheduler) reportDue(ctx context.Context, u user, weekStart time.Time) (bool, error) {
	hasReport := true
	_, err := queryOne[weeklyReport](s.db, ctx,
		"SELECT * FROM weekly_reports WHERE user_id = @userID AND week_start = @weekStart",
		pgx.NamedArgs{"userID": u.ID, "weekStart": weekStart.Format("2006-01-02")})
	if errors.Is(err, pgx.ErrNoRows) {
		hasReport = false
	} else if err != nil {
		return false, err
	}

	// MIN over zero rows is NULL — scan through *string to handle that case.
	var earliest *string
	row := s.db.QueryRow(ctx,
		"SELECT TO_CHAR(MIN(date), 'YYYY-MM-DD') FROM daily_logs WHERE user_id = @userID",
		pgx.NamedArgs{"userID": u.ID})
	if err := row.Scan(&earliest); err != nil {
		return false, err
	}
	var firstLog *time.Time
	if earliest != nil {
		parsed, err := time.Parse("2006-01-02", *earliest)
		if err != nil {
			return false, err
		}
		firstLog = &parsed
	}
	return shouldReport(hasReport, firstLog, weekStart), nil
}
