package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/filmfriends/backend/internal/config"
)

func TestNewAppliesTimeouts(t *testing.T) {
	cfg := config.HTTPConfig{
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    4 * time.Second,
		IdleTimeout:     time.Minute,
		ShutdownTimeout: 2 * time.Second,
	}

	srv := New(9090, http.NotFoundHandler(), cfg)

	if srv.Addr() != ":9090" {
		t.Fatalf("addr = %q", srv.Addr())
	}
	if srv.inner.ReadTimeout != cfg.ReadTimeout || srv.inner.WriteTimeout != cfg.WriteTimeout || srv.inner.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("timeouts not applied: %+v", srv.inner)
	}
	if srv.shutdownTimeout != cfg.ShutdownTimeout {
		t.Fatalf("shutdown timeout = %s", srv.shutdownTimeout)
	}
}

func TestServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := New(0, handler, config.HTTPConfig{ShutdownTimeout: time.Second})

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
