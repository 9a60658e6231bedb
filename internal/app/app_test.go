package app

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServiceServesAndShutsDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewService(&config.Config{})
	var order []string
	s.OnShutdown("pool", func() error { order = append(order, "pool"); return nil })
	s.OnShutdown("publisher", func() error { order = append(order, "publisher"); return assert.AnError })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.serve(ctx, listener, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		close(done)
	}()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String())
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"pool", "publisher"}, order)
}

func TestServiceRunFailsOnBusyPort(t *testing.T) {
	listener, err := net.Listen("tcp", "0.0.0.0:0")
	require.NoError(t, err)
	defer listener.Close()

	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)

	s := NewService(&config.Config{Server: config.Server{Port: port}})
	assert.Error(t, s.Run(context.Background(), http.NotFoundHandler()))
}
