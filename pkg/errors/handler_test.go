package errors

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverMiddlewareSwallowsPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer RecoverMiddleware()()
		panic("boom")
	})
}

func TestGoRecovers(t *testing.T) {
	done := make(chan struct{})
	Go("test", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestWatchdogTripsOnBurst(t *testing.T) {
	var shutdown atomic.Bool
	exited := make(chan int, 1)

	h := NewErrorHandler("", func() { shutdown.Store(true) }, Options{
		MaxErrors:     2,
		ResetInterval: time.Hour,
		CheckInterval: 10 * time.Millisecond,
	})
	h.exit = func(code int) { exited <- code }
	defer h.Stop()

	for i := 0; i < 3; i++ {
		h.IncrementError()
	}

	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
		assert.True(t, shutdown.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not trip")
	}
}

func TestWatchdogResetsWindow(t *testing.T) {
	h := NewErrorHandler("", nil, Options{
		MaxErrors:     100,
		ResetInterval: 20 * time.Millisecond,
		CheckInterval: time.Hour,
	})
	defer h.Stop()

	h.IncrementError()
	require.Equal(t, int32(1), h.Count())

	assert.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestReportPostsEmbed(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := NewErrorHandler(srv.URL, nil, DefaultOptions())
	defer h.Stop()

	h.Report(ReportErrorOptions{Error: "Test", Message: "algo falló"})

	embeds, ok := got["embeds"].([]interface{})
	require.True(t, ok)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]interface{})
	assert.Equal(t, "algo falló", embed["description"])
}
