package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/solvex-io/captcha-api/internal/metrics"
	"github.com/solvex-io/captcha-api/internal/ocr"
)

// TaskState represents the externally visible state of a task.
type TaskState string

// Possible task state values
const (
	TaskStateDone     TaskState = "done"
	TaskStatePending  TaskState = "pending"
	TaskStateError    TaskState = "error"
	TaskStateNotFound TaskState = "not_found"
)

// TaskStatus is the answer to a status query. Code and Raw are set only for
// done tasks; Error only for failed ones.
type TaskStatus struct {
	State TaskState
	Code  string
	Raw   string
	Error string
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	// TaskTTL is how long finished (done or failed) entries stay cached.
	TaskTTL time.Duration

	// MaxEntries bounds the number of finished entries kept; when exceeded the
	// oldest-completed entries are evicted first. Zero disables the bound.
	MaxEntries int

	// CallTimeout bounds each backend call.
	CallTimeout time.Duration

	// ScopeByCredential isolates cached results per caller credential.
	ScopeByCredential bool
}

// DefaultCoordinatorConfig returns a CoordinatorConfig with reasonable defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		TaskTTL:           10 * time.Minute,
		MaxEntries:        200,
		CallTimeout:       30 * time.Second,
		ScopeByCredential: true,
	}
}

// inflight is the join handle for one outstanding backend call. The done
// channel is closed after the call's outcome has been recorded in the state
// store and the pending entry removed.
type inflight struct {
	done chan struct{}
}

// failure is the immutable record of a failed backend call.
type failure struct {
	message string
	timeout bool
}

// Coordinator deduplicates OCR work across callers and caches outcomes.
//
// All state lives in three maps (completed, pending, failed) plus a
// completion-timestamp index, guarded by a single mutex. Every public
// operation acquires the mutex, runs the eviction sweep, and releases it
// before any backend call is made. For a given key at most one of
// completed/pending/failed holds at any instant, and a completion timestamp
// exists iff the key is completed or failed.
type Coordinator struct {
	backend ocr.Backend
	config  CoordinatorConfig
	logger  *slog.Logger

	// now is the clock; replaced in tests to drive eviction.
	now func() time.Time

	mu          sync.Mutex
	completed   map[string]ocr.Result
	pending     map[string]*inflight
	failed      map[string]failure
	completedAt map[string]time.Time
}

// NewCoordinator creates a Coordinator calling the given backend.
func NewCoordinator(backend ocr.Backend, config CoordinatorConfig, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		backend:     backend,
		config:      config,
		logger:      logger,
		now:         time.Now,
		completed:   make(map[string]ocr.Result),
		pending:     make(map[string]*inflight),
		failed:      make(map[string]failure),
		completedAt: make(map[string]time.Time),
	}
}

// Submit registers an image for recognition and returns its task id without
// waiting for the backend. If a result, failure or in-flight call already
// exists for this image (and credential, when scoping is on), no new backend
// call is started; a cached failure is only retried when forceRetry is set.
func (c *Coordinator) Submit(image []byte, credential string, forceRetry bool) string {
	taskID := DeriveTaskID(image)
	key := c.lookupKey(taskID, credential)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())

	if _, ok := c.completed[key]; ok {
		metrics.TasksSubmittedTotal.WithLabelValues("cached").Inc()
		return taskID
	}
	if _, ok := c.pending[key]; ok {
		metrics.TasksSubmittedTotal.WithLabelValues("joined").Inc()
		return taskID
	}
	if _, ok := c.failed[key]; ok && !forceRetry {
		metrics.TasksSubmittedTotal.WithLabelValues("failed_cached").Inc()
		return taskID
	}

	// Either the key is absent or a retry was requested; clear any prior
	// failure so the timestamp index only tracks finished work.
	delete(c.failed, key)
	delete(c.completedAt, key)

	c.startLocked(key, image, credential)
	metrics.TasksSubmittedTotal.WithLabelValues("started").Inc()
	return taskID
}

// GetStatus reports the current state for a task id. not_found covers both
// never-submitted ids and entries evicted after completion; callers cannot
// distinguish the two.
func (c *Coordinator) GetStatus(taskID, credential string) TaskStatus {
	key := c.lookupKey(taskID, credential)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())

	if result, ok := c.completed[key]; ok {
		return TaskStatus{State: TaskStateDone, Code: result.Code, Raw: result.Raw}
	}
	if _, ok := c.pending[key]; ok {
		return TaskStatus{State: TaskStatePending}
	}
	if f, ok := c.failed[key]; ok {
		return TaskStatus{State: TaskStateError, Error: f.message}
	}
	return TaskStatus{State: TaskStateNotFound}
}

// Classify recognizes an image synchronously. Cached outcomes are returned
// immediately; otherwise the caller joins (or starts) the single in-flight
// backend call for this key and waits for it to finish.
func (c *Coordinator) Classify(ctx context.Context, image []byte, credential string) (ocr.Result, error) {
	taskID := DeriveTaskID(image)
	key := c.lookupKey(taskID, credential)

	c.mu.Lock()
	c.sweepLocked(c.now())

	if result, ok := c.completed[key]; ok {
		c.mu.Unlock()
		return result, nil
	}
	if f, ok := c.failed[key]; ok {
		c.mu.Unlock()
		return ocr.Result{}, f.err()
	}

	inf, ok := c.pending[key]
	if !ok {
		inf = c.startLocked(key, image, credential)
		metrics.TasksSubmittedTotal.WithLabelValues("started").Inc()
	} else {
		metrics.TasksSubmittedTotal.WithLabelValues("joined").Inc()
	}
	c.mu.Unlock()

	select {
	case <-inf.done:
	case <-ctx.Done():
		// The caller gave up; the backend call keeps running so other joiners
		// still get their result.
		return ocr.Result{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if result, ok := c.completed[key]; ok {
		return result, nil
	}
	if f, ok := c.failed[key]; ok {
		return ocr.Result{}, f.err()
	}

	// The call finished but left neither a result nor a failure, or the entry
	// was evicted in the window between completion and this re-read. Under
	// correct single-flight discipline this should never happen.
	return ocr.Result{}, ocr.ErrInconsistentState
}

// startLocked creates the pending record for key and schedules the backend
// call. The caller must hold the mutex; the call itself runs outside it.
func (c *Coordinator) startLocked(key string, image []byte, credential string) *inflight {
	inf := &inflight{done: make(chan struct{})}
	c.pending[key] = inf
	go c.runTask(key, image, credential, inf)
	return inf
}

// runTask performs one backend call and records its outcome. It is the only
// writer that transitions a key out of the pending state; removing the
// pending entry and closing the join handle happen last, under the mutex.
func (c *Coordinator) runTask(key string, image []byte, credential string, inf *inflight) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.config.CallTimeout)
	raw, err := c.backend.Recognize(ctx, image, credential)
	cancel()
	metrics.BackendLatencySeconds.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()

	switch {
	case err == nil:
		code := ocr.ExtractCode(raw)
		c.completed[key] = ocr.Result{Code: code, Raw: raw}
		delete(c.failed, key)
		c.completedAt[key] = now
		metrics.BackendCallsTotal.WithLabelValues("ok").Inc()
		c.logger.Debug("task completed", "key", key, "code", code)
	case errors.Is(err, ocr.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		c.failed[key] = failure{
			message: fmt.Sprintf("timeout after %gs", c.config.CallTimeout.Seconds()),
			timeout: true,
		}
		c.completedAt[key] = now
		metrics.BackendCallsTotal.WithLabelValues("timeout").Inc()
		c.logger.Warn("task timed out", "key", key, "timeout", c.config.CallTimeout)
	default:
		// Store the backend's message verbatim; the sentinel prefix is added
		// back when the failure is surfaced, so strip it here.
		msg := err.Error()
		if cut, ok := strings.CutPrefix(msg, ocr.ErrBackendFailure.Error()+": "); ok {
			msg = cut
		}
		c.failed[key] = failure{message: msg}
		c.completedAt[key] = now
		metrics.BackendCallsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("task failed", "key", key, "error", err)
	}

	c.sweepLocked(now)
	delete(c.pending, key)
	close(inf.done)
}

// sweepLocked evicts expired finished entries, then trims oldest-first down
// to MaxEntries. Pending entries are never touched, regardless of age. The
// caller must hold the mutex.
func (c *Coordinator) sweepLocked(now time.Time) {
	for key, ts := range c.completedAt {
		if now.Sub(ts) > c.config.TaskTTL {
			c.evictLocked(key)
			metrics.EvictionsTotal.WithLabelValues("ttl").Inc()
		}
	}

	if c.config.MaxEntries <= 0 || len(c.completedAt) <= c.config.MaxEntries {
		return
	}

	type finished struct {
		key string
		ts  time.Time
	}
	entries := make([]finished, 0, len(c.completedAt))
	for key, ts := range c.completedAt {
		entries = append(entries, finished{key, ts})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts.Before(entries[j].ts) })

	for _, e := range entries[:len(entries)-c.config.MaxEntries] {
		c.evictLocked(e.key)
		metrics.EvictionsTotal.WithLabelValues("capacity").Inc()
	}
}

// evictLocked removes one finished entry from all maps as a unit.
func (c *Coordinator) evictLocked(key string) {
	delete(c.completedAt, key)
	delete(c.completed, key)
	delete(c.failed, key)
}

// err converts a recorded failure back into a sentinel-wrapped error for the
// synchronous path.
func (f failure) err() error {
	if f.timeout {
		return fmt.Errorf("%w: %s", ocr.ErrTimeout, f.message)
	}
	return fmt.Errorf("%w: %s", ocr.ErrBackendFailure, f.message)
}
