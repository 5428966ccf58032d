package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid default config", mutate: func(*Config) {}},
		{name: "concurrency too low", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "concurrency too high", mutate: func(c *Config) { c.Concurrency = 101 }, wantErr: "concurrency"},
		{name: "poll interval too short", mutate: func(c *Config) { c.PollInterval = time.Millisecond }, wantErr: "poll interval"},
		{name: "stale threshold too short", mutate: func(c *Config) { c.StaleJobThreshold = time.Second }, wantErr: "stale job threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_FillsZeroFields(t *testing.T) {
	w, err := New(repository.NewMemory(), Config{Concurrency: 4}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, 4, w.config.Concurrency)
	assert.Equal(t, DefaultConfig().StaleJobThreshold, w.config.StaleJobThreshold)
	assert.Equal(t, DefaultConfig().PollInterval, w.config.PollInterval)
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "permanent error",
			err:  NewPermanentError(context.Canceled),
			want: true,
		},
		{
			name: "regular error",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

type stubHandler struct {
	jobType string
	result  json.RawMessage
	err     error
	seen    []ArtifactPayload
}

func (h *stubHandler) Type() string { return h.jobType }

func (h *stubHandler) Handle(_ context.Context, payload []byte) (json.RawMessage, error) {
	var p ArtifactPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, NewPermanentError(err)
	}
	h.seen = append(h.seen, p)
	return h.result, h.err
}

func newTestWorker(t *testing.T, store repository.Jobs, handlers ...JobHandler) *Worker {
	t.Helper()
	w, err := New(store, DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	for _, h := range handlers {
		w.Register(h)
	}
	return w
}

func TestWorker_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("empty queue", func(t *testing.T) {
		w := newTestWorker(t, repository.NewMemory())
		ran, err := w.RunOnce(ctx)
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("completes job and stores result", func(t *testing.T) {
		store := repository.NewMemory()
		h := &stubHandler{jobType: JobTypeGenerateMeme, result: json.RawMessage(`{"url":"/files/x.svg"}`)}
		w := newTestWorker(t, store, h)

		job, err := EnqueueGenerateMeme(ctx, store, "pred_1_abcdef")
		require.NoError(t, err)

		ran, err := w.RunOnce(ctx)
		require.NoError(t, err)
		assert.True(t, ran)
		require.Len(t, h.seen, 1)
		assert.Equal(t, "pred_1_abcdef", h.seen[0].PredictionID)

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, got.Status)
		assert.JSONEq(t, `{"url":"/files/x.svg"}`, string(got.Result))
	})

	t.Run("transient failure is rescheduled", func(t *testing.T) {
		store := repository.NewMemory()
		h := &stubHandler{jobType: JobTypeGenerateReport, err: errors.New("upload failed")}
		w := newTestWorker(t, store, h)

		job, err := EnqueueGenerateReport(ctx, store, "pred_1_abcdef")
		require.NoError(t, err)

		_, err = w.RunOnce(ctx)
		require.NoError(t, err)

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPending, got.Status)
		assert.Equal(t, int32(1), got.Attempts)
		assert.Equal(t, "upload failed", got.ErrorMessage)
		assert.True(t, got.ScheduledAt.After(time.Now()))
	})

	t.Run("permanent failure is not retried", func(t *testing.T) {
		store := repository.NewMemory()
		h := &stubHandler{jobType: JobTypeGenerateReport, err: NewPermanentError(errors.New("prediction gone"))}
		w := newTestWorker(t, store, h)

		job, err := EnqueueGenerateReport(ctx, store, "pred_1_abcdef")
		require.NoError(t, err)

		_, err = w.RunOnce(ctx)
		require.NoError(t, err)

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
	})

	t.Run("unknown job type fails permanently", func(t *testing.T) {
		store := repository.NewMemory()
		w := newTestWorker(t, store)

		job, err := EnqueueJob(ctx, store, "reindex", map[string]string{})
		require.NoError(t, err)

		ran, err := w.RunOnce(ctx)
		require.NoError(t, err)
		assert.True(t, ran)

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
		assert.Contains(t, got.ErrorMessage, "no handler registered")
	})
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	w := newTestWorker(t, repository.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
