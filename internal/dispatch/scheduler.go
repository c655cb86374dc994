// Package dispatch owns the throttled batch engine: it stages one job per
// validated recipient, gates each job on its stagger delay, and aggregates
// job outcomes under a single batch deadline.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kukua/saro-sms/internal/domain"
	"github.com/kukua/saro-sms/internal/observability"
)

// Mode selects which batch variant an invocation dispatches.
type Mode string

const (
	ModeDaily   Mode = "daily"
	ModeFourDay Mode = "fourday"
	ModeMonthly Mode = "monthly"
)

// State tracks the batch lifecycle.
type State int32

const (
	StateIdle State = iota
	StateStaging
	StateRunning
	StateCompleted
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaging:
		return "staging"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Job-level failure classes. Outcome errors wrap one of these plus the
// underlying cause.
var (
	ErrFetch = errors.New("forecast fetch failed")
	ErrSend  = errors.New("message send failed")
)

// ErrBatchTimedOut is returned when the deadline elapses before all jobs
// settle.
var ErrBatchTimedOut = errors.New("batch deadline exceeded")

// ForecastSource fetches the forecast document for one recipient.
type ForecastSource interface {
	Fetch(ctx context.Context, r domain.Recipient) (domain.ForecastDocument, error)
}

// MessageSender delivers one message body and returns the gateway message ID.
type MessageSender interface {
	Send(ctx context.Context, from, to, body string) (string, error)
}

// Options configure a Scheduler. All scheduling inputs are explicit; the
// scheduler reads no ambient state.
type Options struct {
	// SendInterval is the stagger between consecutive job starts.
	SendInterval time.Duration
	// Deadline bounds the whole batch. Zero means the 4h default.
	Deadline time.Duration
	// ContactNumber appears in the monthly memo.
	ContactNumber string
}

// Job pairs a recipient with its scheduled start offset.
type Job struct {
	Index     int
	Recipient domain.Recipient
	Delay     time.Duration
}

// JobOutcome is the settled result of one job.
type JobOutcome struct {
	Recipient domain.Recipient
	MessageID string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether the job settled with an error.
func (o JobOutcome) Failed() bool { return o.Err != nil }

// BatchResult aggregates every settled job outcome for one invocation.
// Outcomes appear in settlement order, which carries no guarantee: a job with
// a larger delay may settle before an earlier one whose external calls are
// slow.
type BatchResult struct {
	ID       string
	Mode     Mode
	Outcomes []JobOutcome
	TimedOut bool
}

// Failures counts settled jobs that errored.
func (r *BatchResult) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Scheduler runs batches. One Scheduler dispatches one batch at a time.
type Scheduler struct {
	opts      Options
	forecasts ForecastSource
	sender    MessageSender
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	state     atomic.Int32
}

// NewScheduler creates a Scheduler. Pass a nil clock for real time; tests
// inject a fake clock to drive stagger delays and the deadline.
func NewScheduler(opts Options, forecasts ForecastSource, sender MessageSender, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Deadline <= 0 {
		opts.Deadline = 4 * time.Hour
	}
	return &Scheduler{
		opts:      opts,
		forecasts: forecasts,
		sender:    sender,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// State returns the current batch lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// BatchState returns the lifecycle state as a string for status reporting.
func (s *Scheduler) BatchState() string {
	return s.State().String()
}

// CheckReadiness reports nil once a batch is staged and running.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if st := s.State(); st == StateIdle || st == StateStaging {
		return fmt.Errorf("batch not running yet (state %s)", st)
	}
	return nil
}

// Stage computes one job per recipient. The delay is the job's scheduled
// start offset from batch start, not a queue-position wait.
func (s *Scheduler) Stage(recipients []domain.Recipient) []Job {
	jobs := make([]Job, len(recipients))
	for i, r := range recipients {
		jobs[i] = Job{
			Index:     i,
			Recipient: r,
			Delay:     time.Duration(i) * s.opts.SendInterval,
		}
	}
	return jobs
}

// Dispatch runs one batch to settlement or deadline. Job failures are
// isolated: every job settles on its own and the BatchResult carries one
// outcome per recipient. When the deadline elapses first, jobs still in
// flight are no longer awaited but are not aborted.
func (s *Scheduler) Dispatch(ctx context.Context, mode Mode, recipients []domain.Recipient) (*BatchResult, error) {
	result := &BatchResult{ID: uuid.NewString(), Mode: mode}

	s.state.Store(int32(StateStaging))
	jobs := s.Stage(recipients)
	s.metrics.JobsStaged.Set(float64(len(jobs)))
	s.logger.Info("batch staged",
		"batch", result.ID, "mode", mode, "jobs", len(jobs), "interval", s.opts.SendInterval)

	s.metrics.BatchRunning.Set(1)
	defer s.metrics.BatchRunning.Set(0)

	// Buffered so late-settling jobs can finish after a deadline return.
	results := make(chan JobOutcome, len(jobs))
	s.state.Store(int32(StateRunning))
	for _, job := range jobs {
		go s.runJob(ctx, mode, job, results)
	}

	deadline := s.clock.After(s.opts.Deadline)
	for settled := 0; settled < len(jobs); settled++ {
		select {
		case outcome := <-results:
			result.Outcomes = append(result.Outcomes, outcome)
			s.observe(result.ID, outcome)
		case <-deadline:
			result.TimedOut = true
			s.state.Store(int32(StateTimedOut))
			s.logger.Error("batch deadline exceeded",
				"batch", result.ID, "settled", settled, "pending", len(jobs)-settled)
			return result, fmt.Errorf("%w: %d of %d jobs settled", ErrBatchTimedOut, settled, len(jobs))
		case <-ctx.Done():
			result.TimedOut = true
			s.state.Store(int32(StateTimedOut))
			return result, ctx.Err()
		}
	}

	s.state.Store(int32(StateCompleted))
	if n := result.Failures(); n > 0 {
		s.logger.Warn("batch completed with failures",
			"batch", result.ID, "failed", n, "total", len(jobs))
	} else {
		s.logger.Info("batch completed", "batch", result.ID, "total", len(jobs))
	}
	return result, nil
}

// runJob waits out the job's stagger delay, executes it, and reports the
// outcome. The delay wait and the external calls are the job's only
// suspension points.
func (s *Scheduler) runJob(ctx context.Context, mode Mode, job Job, results chan<- JobOutcome) {
	if job.Delay > 0 {
		select {
		case <-ctx.Done():
			results <- JobOutcome{Recipient: job.Recipient, Err: ctx.Err()}
			return
		case <-s.clock.After(job.Delay):
		}
	}

	start := s.clock.Now()
	id, err := s.execute(ctx, mode, job.Recipient)
	results <- JobOutcome{
		Recipient: job.Recipient,
		MessageID: id,
		Err:       err,
		StartedAt: start,
		Duration:  s.clock.Since(start),
	}
}

func (s *Scheduler) execute(ctx context.Context, mode Mode, r domain.Recipient) (string, error) {
	body, err := s.render(ctx, mode, r)
	if err != nil {
		return "", err
	}
	s.metrics.MessageLength.Observe(float64(len(body)))

	id, err := s.sender.Send(ctx, r.Sender, r.Number, body)
	if err != nil {
		return "", fmt.Errorf("%w: recipient %s: %w", ErrSend, r.Number, err)
	}
	s.metrics.MessagesSent.Inc()
	return id, nil
}

// render produces the message body for one recipient. The monthly memo needs
// no forecast; every other mode fetches and extracts per the recipient's
// format.
func (s *Scheduler) render(ctx context.Context, mode Mode, r domain.Recipient) (string, error) {
	if mode == ModeMonthly {
		return domain.RenderMonthlyMemo(r.Location, s.opts.ContactNumber), nil
	}

	doc, err := s.forecasts.Fetch(ctx, r)
	if err != nil {
		return "", fmt.Errorf("%w: recipient %s: %w", ErrFetch, r.Number, err)
	}

	today := startOfDayUTC(s.clock.Now())
	switch r.Format {
	case domain.FormatDailyDetailed:
		slots, err := doc.SlotsForDate(today, r.Format)
		if err != nil {
			return "", fmt.Errorf("recipient %s: %w", r.Number, err)
		}
		return domain.RenderDailyDetailed(r.Location, today, slots), nil

	case domain.FormatQualitative:
		tomorrow := today.AddDate(0, 0, 1)
		slots, err := doc.SlotsForDate(tomorrow, r.Format)
		if err != nil {
			return "", fmt.Errorf("recipient %s: %w", r.Number, err)
		}
		return domain.RenderQualitative(r.Location, r.Language, tomorrow, slots), nil

	case domain.FormatFourDay:
		days := make([]domain.DaySlots, 0, 4)
		for i := 0; i < 4; i++ {
			slots, err := doc.SlotsForDate(today.AddDate(0, 0, i), r.Format)
			if err != nil {
				return "", fmt.Errorf("recipient %s: %w", r.Number, err)
			}
			days = append(days, slots)
		}
		return domain.RenderFourDay(r.Location, r.Language, today, days), nil
	}
	return "", fmt.Errorf("recipient %s: unsupported format %d", r.Number, r.Format)
}

func (s *Scheduler) observe(batchID string, o JobOutcome) {
	s.metrics.JobDuration.Observe(o.Duration.Seconds())
	if !o.Failed() {
		s.logger.Debug("job settled",
			"batch", batchID, "recipient", o.Recipient.Number, "sid", o.MessageID, "duration", o.Duration)
		return
	}

	s.metrics.JobFailures.WithLabelValues(failureReason(o.Err)).Inc()
	s.logger.Error("job failed",
		"batch", batchID, "recipient", o.Recipient.Number, "location", o.Recipient.Location, "error", o.Err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, domain.ErrIncompleteForecast):
		return "forecast"
	case errors.Is(err, ErrSend):
		return "send"
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
