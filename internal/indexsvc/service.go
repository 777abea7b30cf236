package indexsvc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/submission"
)

// DrainTimeout bounds how long await_completion waits for the in-flight
// queue to empty before issuing its final commit regardless.
const DrainTimeout = 5 * time.Hour

// Metrics are the in-process counters exposed by the health endpoint.
type Metrics struct {
	Queued    int64
	Active    int64
	Completed int64
	Failed    int64
}

// job is one unit of work submitted to the worker pool.
type job struct {
	taskID string
	accNo  string
}

// Service is the indexing service: queue_submission/queue_stream enqueue
// work, a bounded pool of threadCount workers drain it against the
// submission indexer, and get_status/await_completion observe progress.
type Service struct {
	store     *indexstore.Manager
	indexer   *submission.Indexer
	fetcher   Fetcher
	logger    arbor.ILogger
	collection string

	tasks *taskStore
	queue chan job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	queued, active, completed, failed atomic.Int64
	transportHealthy                  atomic.Bool
}

// New builds an indexing service with threadCount workers and a queue
// depth of queueCapacity; once queueCapacity is exhausted, queue_submission
// runs the fetch/index synchronously on the caller's own goroutine
// (caller-runs backpressure), never blocking or dropping work.
func New(store *indexstore.Manager, indexer *submission.Indexer, fetcher Fetcher, collection string, threadCount, queueCapacity int, logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		store:      store,
		indexer:    indexer,
		fetcher:    fetcher,
		logger:     logger,
		collection: collection,
		tasks:      newTaskStore(),
		queue:      make(chan job, queueCapacity),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.transportHealthy.Store(true)
	for i := 0; i < threadCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	return s
}

// SetTransportHealthy records the messaging transport's connectivity
// state. The broker client calls this on connect/disconnect; a service
// run without a broker (messaging disabled) stays healthy by default.
func (s *Service) SetTransportHealthy(healthy bool) {
	s.transportHealthy.Store(healthy)
}

// TransportHealthy reports whether the messaging transport is currently
// considered up.
func (s *Service) TransportHealthy() bool {
	return s.transportHealthy.Load()
}

func (s *Service) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case j, ok := <-s.queue:
			if !ok {
				return
			}
			s.run(j)
		}
	}
}

// QueueResult mirrors the accepted-submission response contract.
type QueueResult struct {
	AccNo         string
	TaskID        string
	QueuePosition int
	Status        State
	StatusURL     string
}

// QueueSubmission enqueues accNo for fetch + index, returning its task
// id and status URL immediately. Before enqueueing, it checks the
// messaging-transport health flag; a closed transport fails fast with
// ServiceUnavailable rather than accepting work it cannot fulfil.
func (s *Service) QueueSubmission(accNo string) (QueueResult, error) {
	if accNo == "" {
		return QueueResult{}, apperrors.InvalidInputf("indexsvc: missing accession")
	}
	if !s.transportHealthy.Load() {
		return QueueResult{}, apperrors.ServiceUnavailablef("indexsvc: messaging transport is down")
	}
	t := s.tasks.create(accNo)
	s.queued.Add(1)

	select {
	case s.queue <- job{taskID: t.ID, accNo: accNo}:
	default:
		// Queue full: caller runs the job itself rather than blocking
		// or dropping it (caller-runs backpressure).
		s.run(job{taskID: t.ID, accNo: accNo})
	}

	return QueueResult{
		AccNo:         accNo,
		TaskID:        t.ID,
		QueuePosition: s.tasks.queuePosition(t.ID),
		Status:        Queued,
		StatusURL:     "/submissions/" + accNo + "/status",
	}, nil
}

// QueueStream enqueues every accession in accNos (e.g. resolved from a
// batch filter against an external file-list source, out of scope here)
// and returns the queue results of those accepted; accessions that fail
// to queue are left out of the result without an error.
func (s *Service) QueueStream(accNos []string) []QueueResult {
	out := make([]QueueResult, 0, len(accNos))
	for _, acc := range accNos {
		r, err := s.QueueSubmission(acc)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GetStatus returns the current status of a previously queued task.
func (s *Service) GetStatus(taskID string) (Task, bool) {
	return s.tasks.get(taskID)
}

// ActiveTasks returns every non-terminal task, newest first.
func (s *Service) ActiveTasks() []Task {
	return s.tasks.active()
}

// Metrics snapshots the in-process task counters.
func (s *Service) Metrics() Metrics {
	return Metrics{
		Queued:    s.queued.Load(),
		Active:    s.active.Load(),
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
	}
}

// run fetches and indexes one accession, updating its task status.
// Per-task failures are recorded on the task, never rolled back:
// transactions are per-batch, not per-task.
func (s *Service) run(j job) {
	s.active.Add(1)
	defer s.active.Add(-1)
	s.tasks.setState(j.taskID, Running, "")

	raw, err := s.fetcher.Fetch(s.ctx, j.accNo)
	switch {
	case apperrors.Is(err, apperrors.NotFound):
		if derr := s.indexer.DeleteByAccession(j.accNo, s.store.CommitSubmissionRelated); derr != nil {
			s.logger.Error().Err(derr).Str("accession", j.accNo).Msg("indexsvc: delete-by-accession failed")
			s.failed.Add(1)
			s.tasks.setState(j.taskID, Failed, derr.Error())
			return
		}
		s.tasks.setState(j.taskID, NotFound, "")
		return
	case err != nil:
		s.logger.Error().Err(err).Str("accession", j.accNo).Msg("indexsvc: fetch failed")
		s.failed.Add(1)
		s.tasks.setState(j.taskID, Failed, err.Error())
		return
	}

	if err := s.indexer.IndexOne(s.collection, raw, nil, s.store.CommitSubmissionRelated); err != nil {
		s.logger.Error().Err(err).Str("accession", j.accNo).Msg("indexsvc: index failed")
		s.failed.Add(1)
		s.tasks.setState(j.taskID, Failed, err.Error())
		return
	}

	s.completed.Add(1)
	s.tasks.setState(j.taskID, Completed, "")
}

// DeleteSubmission removes a submission's documents from every
// submission-related index directly, bypassing the fetch step; it is the
// administrative delete path, and performs the same delete that the
// worker's own NOT_FOUND handling issues.
func (s *Service) DeleteSubmission(accNo string) error {
	return s.indexer.DeleteByAccession(accNo, s.store.CommitSubmissionRelated)
}

// AwaitCompletion blocks until the queue drains (no queued or running
// tasks remain) or DrainTimeout elapses, then issues a final commit
// regardless.
func (s *Service) AwaitCompletion() error {
	deadline := time.Now().Add(DrainTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		if len(s.tasks.active()) == 0 {
			break
		}
		<-ticker.C
	}
	return s.store.CommitSubmissionRelated()
}

// EvictExpiredTasks removes terminal tasks older than TaskTTL, intended
// to be called by the single-threaded cleanup scheduler.
func (s *Service) EvictExpiredTasks() int {
	return s.tasks.evictExpired()
}

// Stop signals every worker to exit and waits for them to drain their
// current job, without waiting for the queue itself to empty.
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}
