package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/pojeda/infomap/errors"
	"github.com/pojeda/infomap/metric"
	"github.com/pojeda/infomap/natsclient"
	"github.com/pojeda/infomap/pkg/retry"
	"github.com/pojeda/infomap/pkg/worker"
)

// DefaultSubjectPrefix is the NATS subject root for the job protocol. With
// the default prefix, jobs are submitted on "infomap.jobs.run" and each
// job's events stream on "infomap.jobs.<id>.events".
const DefaultSubjectPrefix = "infomap.jobs"

// Host runs clustering jobs on a worker pool and publishes their event
// streams. Each job gets a monotonically increasing ID and at most one
// terminal event.
type Host struct {
	hostID string
	runner Runner
	logger *slog.Logger

	client        *natsclient.Client
	subjectPrefix string
	retryCfg      retry.Config

	registry *metric.MetricsRegistry
	metrics  *metric.Metrics

	workers   int
	queueSize int
	pool      *worker.Pool[*Job]

	nextID atomic.Uint64

	// jobs holds ids with no terminal event yet; terminal() removes the
	// entry so a long-lived host stays bounded
	jobMu sync.Mutex
	jobs  map[uint64]struct{}

	onEvent func(Event)

	lifecycleMu sync.Mutex
	initialized bool
	started     bool

	runSub *nats.Subscription
	store  *ResultStore
}

// HostOption configures a Host
type HostOption func(*Host)

// WithNATS attaches a NATS client for the wire protocol. Without one the
// host runs purely in-process and events reach only the local handler.
func WithNATS(client *natsclient.Client) HostOption {
	return func(h *Host) {
		h.client = client
	}
}

// WithLogger sets the host logger
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetricsRegistry wires host and pool metrics into the registry
func WithMetricsRegistry(registry *metric.MetricsRegistry) HostOption {
	return func(h *Host) {
		h.registry = registry
		if registry != nil {
			h.metrics = registry.CoreMetrics()
		}
	}
}

// WithWorkers sets the pool size and queue depth
func WithWorkers(workers, queueSize int) HostOption {
	return func(h *Host) {
		h.workers = workers
		h.queueSize = queueSize
	}
}

// WithSubjectPrefix overrides the subject root for the job protocol
func WithSubjectPrefix(prefix string) HostOption {
	return func(h *Host) {
		if prefix != "" {
			h.subjectPrefix = prefix
		}
	}
}

// WithEventHandler registers an in-process event consumer. The handler is
// called synchronously from worker goroutines.
func WithEventHandler(handler func(Event)) HostOption {
	return func(h *Host) {
		h.onEvent = handler
	}
}

// WithResultStore persists terminal results to the store
func WithResultStore(store *ResultStore) HostOption {
	return func(h *Host) {
		h.store = store
	}
}

// WithRetryConfig overrides the event publish retry policy
func WithRetryConfig(cfg retry.Config) HostOption {
	return func(h *Host) {
		h.retryCfg = cfg
	}
}

// NewHost creates a job host around the given runner
func NewHost(runner Runner, opts ...HostOption) (*Host, error) {
	if runner == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("runner is required"), "Host", "New", "validate")
	}

	h := &Host{
		hostID:        uuid.New().String(),
		runner:        runner,
		logger:        slog.Default(),
		subjectPrefix: DefaultSubjectPrefix,
		retryCfg:      retry.Quick(),
		jobs:          make(map[uint64]struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// ID returns the host instance identifier carried on every event
func (h *Host) ID() string {
	return h.hostID
}

// Initialize creates the worker pool
func (h *Host) Initialize() error {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()

	if h.initialized {
		return errors.ErrAlreadyStarted
	}

	var poolOpts []worker.Option[*Job]
	if h.registry != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[*Job](h.registry, "engine_jobs"))
	}
	h.pool = worker.NewPool(h.workers, h.queueSize, h.process, poolOpts...)

	h.initialized = true
	return nil
}

// Start launches the worker pool and, when a NATS client is attached,
// subscribes to the job submission subject
func (h *Host) Start(ctx context.Context) error {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()

	if !h.initialized {
		return errors.ErrNotStarted
	}
	if h.started {
		return errors.ErrAlreadyStarted
	}

	if err := h.pool.Start(ctx); err != nil {
		return errors.Wrap(err, "Host", "Start", "start worker pool")
	}

	if h.client != nil {
		sub, err := h.client.Subscribe(h.subjectPrefix+".run", h.handleRunRequest)
		if err != nil {
			return errors.Wrap(err, "Host", "Start", "subscribe run subject")
		}
		h.runSub = sub
	}

	h.started = true
	h.logger.Info("engine host started",
		"host_id", h.hostID,
		"subject_prefix", h.subjectPrefix)
	return nil
}

// Stop unsubscribes and drains the worker pool
func (h *Host) Stop(timeout time.Duration) error {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()

	if !h.started {
		return nil
	}

	if h.runSub != nil {
		if err := h.runSub.Unsubscribe(); err != nil {
			h.logger.Warn("unsubscribe failed", "error", err)
		}
		h.runSub = nil
	}

	err := h.pool.Stop(timeout)
	h.started = false

	if err != nil {
		return errors.WrapTransient(err, "Host", "Stop", "drain worker pool")
	}
	h.logger.Info("engine host stopped", "host_id", h.hostID)
	return nil
}

// Submit queues a job and returns its ID. A full queue is reported as a
// transient error so callers can retry.
func (h *Host) Submit(filename, content, args string) (uint64, error) {
	if h.pool == nil {
		return 0, errors.ErrNotStarted
	}

	job := &Job{
		ID:       h.nextID.Add(1),
		Filename: filename,
		Content:  content,
		Args:     args,
	}

	h.jobMu.Lock()
	h.jobs[job.ID] = struct{}{}
	h.jobMu.Unlock()

	if err := h.pool.Submit(job); err != nil {
		h.jobMu.Lock()
		delete(h.jobs, job.ID)
		h.jobMu.Unlock()
		return 0, errors.WrapTransient(err, "Host", "Submit", "queue job")
	}

	h.logger.Debug("job queued", "job_id", job.ID, "filename", filename)
	return job.ID, nil
}

// Stats returns the worker pool statistics
func (h *Host) Stats() worker.PoolStats {
	if h.pool == nil {
		return worker.PoolStats{}
	}
	return h.pool.Stats()
}

// process runs one job and emits its event stream
func (h *Host) process(ctx context.Context, job *Job) error {
	start := time.Now()
	if h.metrics != nil {
		h.metrics.JobsActive.Inc()
		defer h.metrics.JobsActive.Dec()
	}

	progress := func(text string) {
		h.emit(ctx, job.ID, Event{
			JobID:     job.ID,
			HostID:    h.hostID,
			Type:      EventData,
			Text:      text,
			Timestamp: time.Now().UTC(),
		})
	}

	result, err := h.runner.Run(ctx, job, progress)
	duration := time.Since(start)

	if h.metrics != nil {
		h.metrics.JobDuration.Observe(duration.Seconds())
	}

	if err != nil {
		if h.metrics != nil {
			h.metrics.JobsTotal.WithLabelValues("error").Inc()
		}
		h.logger.Warn("job failed",
			"job_id", job.ID, "duration", duration, "error", err)
		h.terminal(ctx, job.ID, Event{
			JobID:     job.ID,
			HostID:    h.hostID,
			Type:      EventError,
			Text:      err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return err
	}

	if h.metrics != nil {
		h.metrics.JobsTotal.WithLabelValues("finished").Inc()
	}
	h.logger.Info("job finished", "job_id", job.ID, "duration", duration)

	h.checkResult(job.ID, result)

	if h.store != nil {
		if err := h.store.Put(ctx, job.ID, result); err != nil {
			h.logger.Warn("result store write failed", "job_id", job.ID, "error", err)
		}
	}

	h.terminal(ctx, job.ID, Event{
		JobID:     job.ID,
		HostID:    h.hostID,
		Type:      EventFinished,
		Result:    result,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// checkResult re-imports the primary output through the loaders to confirm
// the bundle is readable, recording loader metrics. A bad output is logged
// but does not fail the job.
func (h *Host) checkResult(jobID uint64, result *Result) {
	format := ""
	switch {
	case result.Tree != "":
		format = "tree"
	case result.Ftree != "":
		format = "ftree"
	case result.Clu != "":
		format = "clu"
	default:
		return
	}

	start := time.Now()
	cm, err := result.ClusterMap(format, false, nil)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LoadsTotal.WithLabelValues(format, "error").Inc()
		}
		h.logger.Warn("result output failed to parse",
			"job_id", jobID, "format", format, "error", err)
		return
	}

	if h.metrics != nil {
		h.metrics.LoadsTotal.WithLabelValues(format, "ok").Inc()
		h.metrics.LoadDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
		h.metrics.LinesParsed.WithLabelValues(format).Add(float64(cm.Lines))
		h.metrics.LinesFiltered.WithLabelValues(format).Add(float64(cm.Filtered))
	}
}

// terminal emits a terminal event exactly once per job; later attempts and
// any data events after it are dropped
func (h *Host) terminal(ctx context.Context, jobID uint64, ev Event) {
	h.jobMu.Lock()
	_, ok := h.jobs[jobID]
	if !ok {
		h.jobMu.Unlock()
		h.logger.Warn("dropping terminal event for terminated job",
			"job_id", jobID, "type", ev.Type)
		return
	}
	delete(h.jobs, jobID)
	h.jobMu.Unlock()

	h.publish(ctx, ev)
}

// emit publishes a data event unless the job has already terminated
func (h *Host) emit(ctx context.Context, jobID uint64, ev Event) {
	h.jobMu.Lock()
	_, live := h.jobs[jobID]
	h.jobMu.Unlock()

	if !live {
		return
	}
	h.publish(ctx, ev)
}

func (h *Host) publish(ctx context.Context, ev Event) {
	if h.onEvent != nil {
		h.onEvent(ev)
	}
	if h.client == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("event marshal failed", "job_id", ev.JobID, "error", err)
		return
	}

	subject := fmt.Sprintf("%s.%d.events", h.subjectPrefix, ev.JobID)
	err = retry.Do(ctx, h.retryCfg, func() error {
		return h.client.Publish(subject, data)
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.ErrorsTotal.WithLabelValues("engine", "transient").Inc()
		}
		h.logger.Error("event publish failed",
			"job_id", ev.JobID, "subject", subject, "error", err)
	}
}

// runRequest is the wire form of a job submission
type runRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Args     string `json:"args"`
}

// runReply acknowledges a submission with the allocated job ID
type runReply struct {
	ID    uint64 `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *Host) handleRunRequest(msg *nats.Msg) {
	var req runRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.reply(msg, runReply{Error: "invalid request: " + err.Error()})
		return
	}

	id, err := h.Submit(req.Filename, req.Content, req.Args)
	if err != nil {
		h.reply(msg, runReply{Error: err.Error()})
		return
	}
	h.reply(msg, runReply{ID: id})
}

func (h *Host) reply(msg *nats.Msg, rep runReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		h.logger.Error("reply marshal failed", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		h.logger.Warn("reply failed", "error", err)
	}
}
