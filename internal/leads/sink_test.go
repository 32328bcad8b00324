package leads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLead() Lead {
	return Lead{
		Details:              Details{Name: "Asha", Email: "asha@example.com", Phone: "9876543210"},
		PortfolioDescription: "TCS: Qty=1, AvgPrice=₹3500, LTP=unknown",
		Source:               DefaultSource,
		Meta:                 Meta{IP: "203.0.113.7", UserAgent: "ua", Referer: "ref"},
		Timestamp:            time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestWebhookSinkPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink("  "+srv.URL+" ", 0, srv.Client())
	require.NotNil(t, sink)
	require.NoError(t, sink.Send(context.Background(), sampleLead()))

	assert.Equal(t, map[string]string{
		"timestamp":            "2026-03-01T09:30:00.000Z",
		"source":               "stocksense",
		"name":                 "Asha",
		"email":                "asha@example.com",
		"phone":                "9876543210",
		"portfolioDescription": "TCS: Qty=1, AvgPrice=₹3500, LTP=unknown",
		"ip":                   "203.0.113.7",
		"userAgent":            "ua",
		"referer":              "ref",
	}, got)
}

func TestWebhookSinkErrors(t *testing.T) {
	t.Run("body text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, "sheet is read-only")
		}))
		defer srv.Close()

		err := NewWebhookSink(srv.URL, 0, srv.Client()).Send(context.Background(), sampleLead())
		assert.EqualError(t, err, "sheet is read-only")
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewWebhookSink(srv.URL, 0, srv.Client()).Send(context.Background(), sampleLead())
		assert.EqualError(t, err, "Google Sheets webhook failed (500).")
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		err := NewWebhookSink(srv.URL, 20*time.Millisecond, srv.Client()).Send(context.Background(), sampleLead())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewWebhookSinkBlank(t *testing.T) {
	assert.Nil(t, NewWebhookSink("   ", 0, nil))
}

type recordingSink struct {
	mu    sync.Mutex
	leads []Lead
	err   error
	ctxOK bool
}

func (r *recordingSink) Send(ctx context.Context, lead Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, lead)
	r.ctxOK = ctx.Err() == nil
	return r.err
}

func TestMultiSink(t *testing.T) {
	first := &recordingSink{err: errors.New("first down")}
	second := &recordingSink{}

	err := MultiSink{first, second}.Send(context.Background(), sampleLead())
	assert.EqualError(t, err, "first down")
	assert.Len(t, first.leads, 1)
	assert.Len(t, second.leads, 1)

	assert.NoError(t, MultiSink{second}.Send(context.Background(), sampleLead()))
}

func TestDispatcherOutlivesRequestContext(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	lead := sampleLead()
	lead.Source = ""
	lead.Timestamp = time.Time{}
	d.Dispatch(ctx, lead)
	cancel()
	d.Close()

	require.Len(t, sink.leads, 1)
	assert.True(t, sink.ctxOK)
	assert.Equal(t, DefaultSource, sink.leads[0].Source)
	assert.Equal(t, d.now(), sink.leads[0].Timestamp)
}

func TestDispatcherWithoutSink(t *testing.T) {
	d := NewDispatcher(nil, 0, nil)
	d.Dispatch(context.Background(), sampleLead())
	d.Close()
}
