package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryIdempotency struct {
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]bool{}}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

var _ IdempotencyStore = (*memoryIdempotency)(nil)

type flakyEnqueuer struct {
	failures int
	calls    int
}

func (e *flakyEnqueuer) EnqueuePayRunProcess(context.Context, int64) error {
	e.calls++
	if e.calls <= e.failures {
		return errors.New("broker unavailable")
	}
	return nil
}

func newProcessFixture(t *testing.T, enq TaskEnqueuer) (http.Handler, *memoryIdempotency, *PayRun) {
	t.Helper()
	svc := NewService(newMemoryRepo(), staticRoster{}, nil, nil)
	run, err := svc.CreateRun(context.Background(), "2026-09", 1)
	require.NoError(t, err)

	store := newMemoryIdempotency()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, nil, store, enq)

	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, store, run
}

func processRequest(runID int64, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/runs/%d/process", runID), nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestProcessRunReleasesKeyWhenEnqueueFails(t *testing.T) {
	enq := &flakyEnqueuer{failures: 1}
	router, store, run := newProcessFixture(t, enq)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, processRequest(run.ID, "retry-1"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, store.keys["retry-1"], "failed enqueue must release the key")

	// The retry with the same key must reach the queue, not be swallowed
	// as a duplicate of the task that never got enqueued.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, processRequest(run.ID, "retry-1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "processing enqueued")
	assert.Equal(t, 2, enq.calls)
}

func TestProcessRunDuplicateKeyShortCircuits(t *testing.T) {
	enq := &flakyEnqueuer{}
	router, _, run := newProcessFixture(t, enq)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, processRequest(run.ID, "once"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, processRequest(run.ID, "once"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "already enqueued")
	assert.Equal(t, 1, enq.calls)
}
