package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
)

func TestScheduler_RunsJob(t *testing.T) {
	s := New(slogt.New(t))
	var runs atomic.Int32
	done := make(chan struct{})
	var once sync.Once

	err := s.Add("@every 1s", "refresh", time.Second, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Job context has no deadline")
		}
		runs.Add(1)
		once.Do(func() { close(done) })
		return nil
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Job did not run")
	}
	if runs.Load() < 1 {
		t.Errorf("Got %d runs, want at least 1", runs.Load())
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestScheduler_LogsJobError(t *testing.T) {
	var logs syncBuffer
	s := New(slog.New(slog.NewTextHandler(&logs, nil)))
	done := make(chan struct{})
	var once sync.Once

	err := s.Add("@every 1s", "refresh", 0, func(ctx context.Context) error {
		defer once.Do(func() { close(done) })
		return errors.New("redis down")
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	s.Start()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Job did not run")
	}
	s.Stop()

	if out := logs.String(); !strings.Contains(out, "Scheduled job failed") || !strings.Contains(out, "redis down") {
		t.Errorf("Log does not contain the job error:\n%s", out)
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(slogt.New(t))
	if err := s.Add("every now and then", "refresh", 0, func(context.Context) error { return nil }); err == nil {
		t.Error("Add() expected error for invalid spec")
	}
}
