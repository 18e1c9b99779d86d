package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/carverdict/internal/config"
	"github.com/turtacn/carverdict/internal/testutil"
	"github.com/turtacn/carverdict/pkg/errors"
)

func TestNewServer(t *testing.T) {
	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080, ReadTimeout: time.Second}, http.NewServeMux(), nil)
	assert.Equal(t, "127.0.0.1:8080", s.Addr())
	assert.Equal(t, 30*time.Second, s.shutdownTimeout)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	log := testutil.NewMockLogger()
	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, http.NewServeMux(), log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, log.HasMessage("info", "HTTP server stopped"))
}

func TestServer_RunReportsListenError(t *testing.T) {
	s := NewServer(config.ServerConfig{Host: "256.0.0.1", Port: 80}, http.NewServeMux(), nil)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeServiceUnavailable))
}

func TestServer_ShutdownBeforeRun(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 0}, http.NewServeMux(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
