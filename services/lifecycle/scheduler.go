package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"mindhaven/metrics"
	"mindhaven/models"
	"mindhaven/utils"

	"go.uber.org/zap"
)

const (
	PassReminder   = "reminder"
	PassCompletion = "completion"
	PassStale      = "stale"

	defaultLeaseTTL = 5 * time.Minute
)

// BookingSource lists the bookings each pass acts on.
type BookingSource interface {
	ListDueReminders(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	ListElapsedConfirmed(ctx context.Context, endedBefore time.Time) ([]models.Booking, error)
	ListStale(ctx context.Context, startedBefore time.Time) ([]models.Booking, error)
}

// Transitioner is the part of the booking service the scheduler drives.
type Transitioner interface {
	Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	Expire(ctx context.Context, b *models.Booking) (*models.Booking, error)
	SendReminder(ctx context.Context, b *models.Booking) (bool, error)
}

// PassResult summarises one pass run.
type PassResult struct {
	Pass      string
	Selected  int
	Processed int
	Failed    int
	Skipped   bool
	// LeaseLost is set when the pass stopped early because its lease expired.
	LeaseLost bool
}

// ErrLeaseLost stops a pass whose lease expired before it finished.
var ErrLeaseLost = errors.New("sweep lease lost")

type Scheduler struct {
	Bookings  BookingSource
	Machine   Transitioner
	Leases    Leaser
	Logger    *zap.Logger
	Lookahead time.Duration
	Grace     time.Duration
	LeaseTTL  time.Duration
	Now       func() time.Time
}

func NewScheduler(bookings BookingSource, machine Transitioner, leases Leaser, logger *zap.Logger, lookahead, grace time.Duration) *Scheduler {
	if leases == nil {
		leases = NewLocalLeaser()
	}
	return &Scheduler{
		Bookings:  bookings,
		Machine:   machine,
		Leases:    leases,
		Logger:    logger,
		Lookahead: lookahead,
		Grace:     grace,
		LeaseTTL:  defaultLeaseTTL,
		Now:       time.Now,
	}
}

// Sweep runs the three passes concurrently and waits for them.
func (s *Scheduler) Sweep(ctx context.Context) []PassResult {
	passes := []func(context.Context) (PassResult, error){
		s.RunReminderPass,
		s.RunCompletionPass,
		s.RunStalePass,
	}
	results := make([]PassResult, len(passes))
	var wg sync.WaitGroup
	for i, run := range passes {
		wg.Add(1)
		go func(i int, run func(context.Context) (PassResult, error)) {
			defer wg.Done()
			res, err := run(ctx)
			if err != nil {
				s.Logger.Error("sweep pass failed", zap.String("pass", res.Pass), zap.Error(err))
			}
			results[i] = res
		}(i, run)
	}
	wg.Wait()
	return results
}

// RunReminderPass reminds both parties of confirmed sessions starting within the lookahead.
func (s *Scheduler) RunReminderPass(ctx context.Context) (PassResult, error) {
	return s.run(ctx, PassReminder,
		func(ctx context.Context, now time.Time) ([]models.Booking, error) {
			return s.Bookings.ListDueReminders(ctx, now, now.Add(s.Lookahead))
		},
		func(ctx context.Context, b *models.Booking) (bool, error) {
			return s.Machine.SendReminder(ctx, b)
		})
}

// RunCompletionPass completes confirmed sessions that ended more than the grace period ago.
func (s *Scheduler) RunCompletionPass(ctx context.Context) (PassResult, error) {
	return s.run(ctx, PassCompletion,
		func(ctx context.Context, now time.Time) ([]models.Booking, error) {
			return s.Bookings.ListElapsedConfirmed(ctx, now.Add(-s.Grace))
		},
		func(ctx context.Context, b *models.Booking) (bool, error) {
			_, err := s.Machine.Complete(ctx, models.SystemActor, b.ID)
			return err == nil, err
		})
}

// RunStalePass cancels bookings that were never confirmed before their start.
func (s *Scheduler) RunStalePass(ctx context.Context) (PassResult, error) {
	return s.run(ctx, PassStale,
		func(ctx context.Context, now time.Time) ([]models.Booking, error) {
			return s.Bookings.ListStale(ctx, now)
		},
		func(ctx context.Context, b *models.Booking) (bool, error) {
			_, err := s.Machine.Expire(ctx, b)
			return err == nil, err
		})
}

func (s *Scheduler) run(
	ctx context.Context,
	pass string,
	list func(context.Context, time.Time) ([]models.Booking, error),
	act func(context.Context, *models.Booking) (bool, error),
) (PassResult, error) {
	res := PassResult{Pass: pass}

	leaseCtx, release, ok, err := s.Leases.Acquire(ctx, "sweep:"+pass, s.LeaseTTL)
	if err != nil {
		metrics.RecordSweep(pass, 0, err)
		return res, err
	}
	if !ok {
		res.Skipped = true
		metrics.RecordSweepSkipped(pass)
		return res, nil
	}
	defer release()

	began := time.Now()
	bookings, err := list(leaseCtx, s.Now())
	if err != nil {
		metrics.RecordSweep(pass, time.Since(began), err)
		return res, err
	}
	res.Selected = len(bookings)

	for i := range bookings {
		if leaseCtx.Err() != nil && ctx.Err() == nil {
			res.LeaseLost = true
			metrics.RecordSweep(pass, time.Since(began), ErrLeaseLost)
			s.Logger.Warn("sweep pass stopped, lease lost",
				zap.String("pass", pass),
				zap.Int("processed", res.Processed),
				zap.Int("remaining", len(bookings)-i))
			return res, ErrLeaseLost
		}
		b := &bookings[i]
		acted, err := act(leaseCtx, b)
		switch {
		case err == nil && acted:
			res.Processed++
			metrics.RecordSweepBooking(pass, "processed")
		case err == nil, lostRace(err):
			metrics.RecordSweepBooking(pass, "skipped")
		default:
			res.Failed++
			metrics.RecordSweepBooking(pass, "failed")
			s.Logger.Warn("sweep failed for booking",
				zap.String("pass", pass),
				zap.String("bookingID", b.ID),
				zap.Error(err))
		}
	}

	metrics.RecordSweep(pass, time.Since(began), nil)
	if res.Processed > 0 || res.Failed > 0 {
		s.Logger.Info("sweep pass finished",
			zap.String("pass", pass),
			zap.Int("selected", res.Selected),
			zap.Int("processed", res.Processed),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

// lostRace is true when a user action or another pass changed the booking first.
func lostRace(err error) bool {
	return errors.Is(err, utils.ErrInvalidTransition) || errors.Is(err, utils.ErrNotFound)
}
