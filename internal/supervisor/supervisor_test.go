// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeServer stands in for *http.Server.
type fakeServer struct {
	serveErr    error
	shutdowns   atomic.Int32
	stopCh      chan struct{}
	stopOnce    atomic.Bool
	startedCh   chan struct{}
	startedOnce atomic.Bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		stopCh:    make(chan struct{}),
		startedCh: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	if f.startedOnce.CompareAndSwap(false, true) {
		close(f.startedCh)
	}
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.stopCh
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	if f.stopOnce.CompareAndSwap(false, true) {
		close(f.stopCh)
	}
	return nil
}

func TestHTTPServiceImplementsSutureService(t *testing.T) {
	t.Parallel()
	var _ suture.Service = NewHTTPService(newFakeServer(), time.Second)
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.startedCh
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
	if got := srv.shutdowns.Load(); got != 1 {
		t.Errorf("shutdown calls = %d, want 1", got)
	}
}

func TestHTTPServicePropagatesListenError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer()
	srv.serveErr = errors.New("address in use")
	svc := NewHTTPService(srv, time.Second)

	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() = nil, want listen error")
	}
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	t.Parallel()

	tree := NewTree(slog.Default(), TreeConfig{})
	srv := newFakeServer()
	tree.AddAPIService(NewHTTPService(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	<-srv.startedCh
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}
