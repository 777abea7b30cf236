package indexsvc

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ebi-biostudies/biostudies-index/internal/apperrors"
)

// maxFetchAttempts and fetchBackoffUnit implement the linear backoff
// policy: attempt n sleeps n * fetchBackoffUnit before retrying.
const (
	maxFetchAttempts = 3
	fetchBackoffUnit = time.Second
)

// Fetcher retrieves one accession's extended submission payload. A
// NotFound-kind error means the accession no longer exists upstream
// (tombstone); any other error is either fatal (no point retrying) or
// transient (already retried internally by Fetch).
type Fetcher interface {
	Fetch(ctx context.Context, accNo string) ([]byte, error)
}

// HTTPFetcher fetches extended submission JSON over HTTP, retrying
// transient failures linearly and classifying upstream status codes per
// the indexing worker's contract: 404 -> NotFound, other 4xx -> fatal,
// 5xx/IO -> transient (retried, then surfaced as TransientIO).
type HTTPFetcher struct {
	client       *http.Client
	baseURL      string
	sessionToken string
}

// NewHTTPFetcher builds a fetcher against baseURL, authenticating with
// sessionToken via the X-Session-Token header.
func NewHTTPFetcher(client *http.Client, baseURL, sessionToken string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client, baseURL: baseURL, sessionToken: sessionToken}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, accNo string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		body, err := f.attempt(ctx, accNo)
		if err == nil {
			return body, nil
		}
		if apperrors.Is(err, apperrors.NotFound) || apperrors.Is(err, apperrors.InvalidInput) {
			return nil, err
		}
		lastErr = err
		if attempt == maxFetchAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * fetchBackoffUnit):
		}
	}
	return nil, apperrors.TransientIOf(lastErr, "indexsvc: fetch %s failed after %d attempts", accNo, maxFetchAttempts)
}

func (f *HTTPFetcher) attempt(ctx context.Context, accNo string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/submissions/"+accNo+"/extended", nil)
	if err != nil {
		return nil, apperrors.InvalidInputf("indexsvc: building request for %s: %v", accNo, err)
	}
	if f.sessionToken != "" {
		req.Header.Set("X-Session-Token", f.sessionToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.TransientIOf(err, "indexsvc: fetch %s", accNo)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.TransientIOf(err, "indexsvc: reading body for %s", accNo)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFoundf("indexsvc: %s not found upstream", accNo)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apperrors.InvalidInputf("indexsvc: %s upstream status %d", accNo, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, apperrors.TransientIOf(nil, "indexsvc: %s upstream status %d", accNo, resp.StatusCode)
	}
	return body, nil
}
