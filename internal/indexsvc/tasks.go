// Package indexsvc implements the indexing service: a bounded worker pool
// that fetches extended submission data for queued accessions, hands it
// to the submission indexer, and tracks per-task status in an in-memory,
// TTL-evicted map.
package indexsvc

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is one stage of a queued task's lifecycle.
type State string

const (
	Queued    State = "QUEUED"
	Running   State = "RUNNING"
	Completed State = "COMPLETED"
	Failed    State = "FAILED"
	NotFound  State = "NOT_FOUND"
)

// TaskTTL is how long a finished task's status remains queryable before
// the cleanup scheduler evicts it.
const TaskTTL = time.Hour

// Task is one accession's queue/index lifecycle record.
type Task struct {
	ID        string
	AccNo     string
	State     State
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// taskStore is a concurrent hash map keyed by task id, read/single-key
// updates are lock-free-equivalent via a single RWMutex (the map itself
// is small enough that a single lock never becomes a bottleneck at the
// scale this core targets).
type taskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func newTaskStore() *taskStore {
	return &taskStore{tasks: make(map[string]*Task)}
}

func (s *taskStore) create(accNo string) *Task {
	t := &Task{
		ID:        uuid.NewString(),
		AccNo:     accNo,
		State:     Queued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	return t
}

func (s *taskStore) setState(id string, state State, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	t.State = state
	t.Error = errMsg
	t.UpdatedAt = time.Now()
}

func (s *taskStore) get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// active returns every task not yet in a terminal state, newest first.
func (s *taskStore) active() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.State == Queued || t.State == Running {
			out = append(out, *t)
		}
	}
	sortTasksNewestFirst(out)
	return out
}

// evictExpired removes every terminal task whose last update is older
// than TaskTTL, run periodically by the cleanup scheduler.
func (s *taskStore) evictExpired() int {
	cutoff := time.Now().Add(-TaskTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, t := range s.tasks {
		if t.State == Queued || t.State == Running {
			continue
		}
		if t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			evicted++
		}
	}
	return evicted
}

func (s *taskStore) queuePosition(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.tasks[id]
	if !ok {
		return 0
	}
	pos := 0
	for _, t := range s.tasks {
		if t.State != Queued {
			continue
		}
		if t.CreatedAt.Before(target.CreatedAt) {
			pos++
		}
	}
	return pos
}

func sortTasksNewestFirst(tasks []Task) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j-1].CreatedAt.Before(tasks[j].CreatedAt); j-- {
			tasks[j-1], tasks[j] = tasks[j], tasks[j-1]
		}
	}
}
