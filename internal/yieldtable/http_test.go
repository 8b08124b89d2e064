package yieldtable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const tableJSON = `{"75": {"un_miktari": 75, "kepek": 18.8, "bonkalit": 5.8}}`

func newTestHTTPSource(url string) *HTTPSource {
	s := NewHTTPSource(url, time.Second, nil)
	s.InitialInterval = 5 * time.Millisecond
	return s
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tableJSON))
	}))
	defer srv.Close()

	table, err := newTestHTTPSource(srv.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", table.Len())
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestHTTPSource_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := newTestHTTPSource(srv.URL).Load(context.Background()); err == nil {
		t.Fatalf("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestHTTPSource_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestHTTPSource(srv.URL)
	s.MaxRetries = 2
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestHTTPSource_StopsWhenContextEnds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := newTestHTTPSource(srv.URL).Load(ctx); err == nil {
		t.Fatalf("expected error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("load took %v after context deadline", elapsed)
	}
}
