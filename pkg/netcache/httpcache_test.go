package netcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	c := New(t.TempDir())
	c.Backoff = time.Millisecond
	return c
}

func TestFetchRevalidatesWithETag(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("def shout(s):\n    return s.upper()\n"))
	}))
	defer srv.Close()

	c := newTestCache(t)
	body, cached, err := c.Fetch(context.Background(), srv.URL+"/text.star")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if cached {
		t.Fatal("first fetch reported cached")
	}
	again, cached, err := c.Fetch(context.Background(), srv.URL+"/text.star")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !cached || string(again) != string(body) {
		t.Fatalf("second fetch: cached=%v body=%q", cached, again)
	}
	if hits.Load() != 2 || notModified.Load() != 1 {
		t.Fatalf("hits=%d notModified=%d", hits.Load(), notModified.Load())
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := newTestCache(t).Fetch(context.Background(), srv.URL+"/missing.star")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, _, err := newTestCache(t).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "ok" || hits.Load() != 3 {
		t.Fatalf("body=%q hits=%d", body, hits.Load())
	}
}

func TestFetchFallsBackToStaleCopy(t *testing.T) {
	var broken atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("v1"))
	}))
	defer srv.Close()

	c := newTestCache(t)
	if _, _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("prime: %v", err)
	}
	broken.Store(true)
	body, cached, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !cached || string(body) != "v1" {
		t.Fatalf("cached=%v body=%q", cached, body)
	}
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, _, err := newTestCache(t).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d", hits.Load())
	}
}

func TestFetchRefetchesCorruptCopy(t *testing.T) {
	var conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("good"))
	}))
	defer srv.Close()

	c := newTestCache(t)
	if _, _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("prime: %v", err)
	}
	data := filepath.Join(c.Dir, hash(srv.URL)+".data")
	if err := os.WriteFile(data, []byte("evil"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	body, cached, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cached || string(body) != "good" {
		t.Fatalf("cached=%v body=%q", cached, body)
	}
	if conditional.Load() != 0 {
		t.Fatal("corrupt copy must not be revalidated")
	}
}
