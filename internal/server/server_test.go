package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"questionnaire/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Start(ctx, config.ServerConfig{Port: "0"}, http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, time.Second, orDefault(0, time.Second))
	assert.Equal(t, 2*time.Second, orDefault(2*time.Second, time.Second))
}
