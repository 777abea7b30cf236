package indexsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ebi-biostudies/biostudies-index/internal/analyzer"
	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
	"github.com/ebi-biostudies/biostudies-index/internal/parser"
	"github.com/ebi-biostudies/biostudies-index/internal/registry"
	"github.com/ebi-biostudies/biostudies-index/internal/submission"
)

const testRegistryJSON = `[{"collectionName":"c1","properties":[
	{"name":"accession","title":"Accession","fieldType":"untokenized_string","retrieved":true},
	{"name":"title","title":"Title","fieldType":"tokenized_string","jsonPaths":["title"],"retrieved":true},
	{"name":"access","title":"Access","fieldType":"untokenized_string"}
]}]`

func newTestIndexer(t *testing.T) (*indexstore.Manager, *submission.Indexer) {
	t.Helper()
	store, err := indexstore.Open(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll() })

	reg, err := registry.LoadFromBytes([]byte(testRegistryJSON))
	require.NoError(t, err)

	analyzers := analyzer.NewCatalog(nil)
	analyzers.BuildDispatcher(reg)
	parsers := parser.NewCatalog()

	ix := submission.New(reg, analyzers, parsers, store, nil, common.GetLogger())
	return store, ix
}

type fakeFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, accNo string) ([]byte, error) {
	if err, ok := f.errs[accNo]; ok {
		return nil, err
	}
	return f.bodies[accNo], nil
}

func TestQueueSubmission_IndexesOnFound(t *testing.T) {
	store, ix := newTestIndexer(t)
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"S-TEST1": []byte(`{"accNo":"S-TEST1","released":true,"title":"Example"}`),
	}}
	svc := New(store, ix, fetcher, "c1", 2, 4, common.GetLogger())
	t.Cleanup(svc.Stop)

	res, err := svc.QueueSubmission("S-TEST1")
	require.NoError(t, err)
	require.Equal(t, "S-TEST1", res.AccNo)

	require.Eventually(t, func() bool {
		task, ok := svc.GetStatus(res.TaskID)
		return ok && task.State == Completed
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, int64(1), svc.Metrics().Completed)
}

func TestQueueSubmission_DeletesOnNotFound(t *testing.T) {
	store, ix := newTestIndexer(t)
	fetcher := &fakeFetcher{errs: map[string]error{
		"S-GONE": apperrors.NotFoundf("gone"),
	}}
	svc := New(store, ix, fetcher, "c1", 1, 1, common.GetLogger())
	t.Cleanup(svc.Stop)

	res, err := svc.QueueSubmission("S-GONE")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, ok := svc.GetStatus(res.TaskID)
		return ok && task.State == NotFound
	}, time.Second, 5*time.Millisecond)
}

func TestQueueSubmission_RecordsFailureWithoutRollback(t *testing.T) {
	store, ix := newTestIndexer(t)
	fetcher := &fakeFetcher{errs: map[string]error{
		"S-BAD": errors.New("boom"),
	}}
	svc := New(store, ix, fetcher, "c1", 1, 1, common.GetLogger())
	t.Cleanup(svc.Stop)

	res, err := svc.QueueSubmission("S-BAD")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, ok := svc.GetStatus(res.TaskID)
		return ok && task.State == Failed
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, int64(1), svc.Metrics().Failed)
}

func TestQueueSubmission_CallerRunsWhenQueueFull(t *testing.T) {
	store, ix := newTestIndexer(t)
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"S-A": []byte(`{"accNo":"S-A","released":true,"title":"A"}`),
		"S-B": []byte(`{"accNo":"S-B","released":true,"title":"B"}`),
	}}
	// zero workers and zero queue capacity forces every submission to
	// run synchronously on the caller's goroutine.
	svc := New(store, ix, fetcher, "c1", 0, 0, common.GetLogger())
	t.Cleanup(svc.Stop)

	res, err := svc.QueueSubmission("S-A")
	require.NoError(t, err)
	task, ok := svc.GetStatus(res.TaskID)
	require.True(t, ok)
	require.Equal(t, Completed, task.State)
}

func TestQueueSubmission_FailsFastWhenTransportDown(t *testing.T) {
	store, ix := newTestIndexer(t)
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"S-TEST1": []byte(`{"accNo":"S-TEST1","released":true,"title":"Example"}`),
	}}
	svc := New(store, ix, fetcher, "c1", 1, 1, common.GetLogger())
	t.Cleanup(svc.Stop)

	svc.SetTransportHealthy(false)
	_, err := svc.QueueSubmission("S-TEST1")
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ServiceUnavailable))

	svc.SetTransportHealthy(true)
	res, err := svc.QueueSubmission("S-TEST1")
	require.NoError(t, err)
	require.Equal(t, "S-TEST1", res.AccNo)
}

func TestEvictExpiredTasks_RemovesOnlyTerminalExpired(t *testing.T) {
	s := newTaskStore()
	t1 := s.create("S-1")
	s.setState(t1.ID, Completed, "")
	s.mu.Lock()
	s.tasks[t1.ID].UpdatedAt = time.Now().Add(-2 * TaskTTL)
	s.mu.Unlock()

	t2 := s.create("S-2")

	evicted := s.evictExpired()
	require.Equal(t, 1, evicted)

	_, ok := s.get(t1.ID)
	require.False(t, ok)
	_, ok = s.get(t2.ID)
	require.True(t, ok)
}
