package server

import (
	"encoding/json"
	"net/http"

	"github.com/ebi-biostudies/biostudies-index/internal/indexstore"
)

// healthResponse reports index readiness, transport connectivity, and
// in-process indexing metrics.
type healthResponse struct {
	Status         string `json:"status"`
	IndexReady     bool   `json:"indexReady"`
	TransportReady bool   `json:"transportReady"`
	QueuedTasks    int64  `json:"queuedTasks"`
	ActiveTasks    int64  `json:"activeTasks"`
	CompletedTasks int64  `json:"completedTasks"`
	FailedTasks    int64  `json:"failedTasks"`
}

// handleHealth reports whether the SUBMISSION index can be searched and
// surfaces the indexing service's queue counters and messaging-transport
// health flag.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	indexReady := true
	if searcher, err := s.app.Store.AcquireSearcher(indexstore.Submission); err != nil {
		indexReady = false
	} else {
		searcher.Release()
	}

	transportReady := s.app.IndexingService.TransportHealthy()
	metrics := s.app.IndexingService.Metrics()

	resp := healthResponse{
		Status:         "ok",
		IndexReady:     indexReady,
		TransportReady: transportReady,
		QueuedTasks:    metrics.Queued,
		ActiveTasks:    metrics.Active,
		CompletedTasks: metrics.Completed,
		FailedTasks:    metrics.Failed,
	}
	if !indexReady {
		resp.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
