package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/prodscrape/models"
)

func TestNewNotifier_EmptyURL(t *testing.T) {
	assert.Nil(t, NewNotifier("", "secret"))
}

func TestRecordUpdated_SignsAndRetries(t *testing.T) {
	var attempts atomic.Int32
	received := make(chan Event, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		assert.Equal(t, "sha256="+Sign("s3cret", body), r.Header.Get(SignatureHeader))
		var ev Event
		assert.NoError(t, json.Unmarshal(body, &ev))
		received <- ev
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "s3cret")
	n.Delays = []time.Duration{0, 10 * time.Millisecond}

	updated := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	n.RecordUpdated(&models.ProductRecord{ID: 7, URL: "https://shop.example/p/7", Title: "Mug", UpdatedAt: updated})

	select {
	case ev := <-received:
		assert.Equal(t, EventProductUpdated, ev.Type)
		assert.Equal(t, "https://shop.example/p/7", ev.URL)
		assert.Equal(t, updated.Unix(), ev.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
	assert.Equal(t, int32(2), attempts.Load())
}
