package telegram

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"earnbot/internal/logger"
)

// Status is the reported health of the bot connection.
type Status string

const (
	StatusNotInitialized Status = "not initialized"
	StatusRunning        Status = "running"
	StatusError          Status = "error"
)

// StatusTracker records the bot's health for the status endpoint.
type StatusTracker struct {
	mu        sync.RWMutex
	status    Status
	lastError string
	checkedAt time.Time
}

// NewStatusTracker creates a tracker in the not initialized state.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{status: StatusNotInitialized}
}

// Set records a new status. err may be nil.
func (t *StatusTracker) Set(status Status, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.lastError = ""
	if err != nil {
		t.lastError = err.Error()
	}
	t.checkedAt = time.Now().UTC()
}

// Status returns the current status.
func (t *StatusTracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// LastError returns the error recorded with the current status, if any.
func (t *StatusTracker) LastError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastError
}

// Pinger is the Bot API call used as a liveness probe.
type Pinger interface {
	GetMe() (tgbotapi.User, error)
}

// Heartbeat periodically calls getMe and records the result.
type Heartbeat struct {
	scheduler gocron.Scheduler
	pinger    Pinger
	tracker   *StatusTracker
	log       *zap.SugaredLogger
}

// StartHeartbeat runs one probe immediately and then every interval.
func StartHeartbeat(pinger Pinger, tracker *StatusTracker, interval time.Duration) (*Heartbeat, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	h := &Heartbeat{scheduler: sched, pinger: pinger, tracker: tracker, log: logger.Named("telegram")}

	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(h.Probe),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return nil, err
	}

	sched.Start()
	return h, nil
}

// Probe performs one liveness check.
func (h *Heartbeat) Probe() {
	if _, err := h.pinger.GetMe(); err != nil {
		h.log.Warnw("bot heartbeat failed", "error", err)
		h.tracker.Set(StatusError, err)
		return
	}
	h.tracker.Set(StatusRunning, nil)
}

// Stop shuts the scheduler down.
func (h *Heartbeat) Stop() error {
	return h.scheduler.Shutdown()
}
