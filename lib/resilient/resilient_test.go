package resilient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type call struct {
	url string
	try int
}

// scriptedGetter answers every request with handler, recording the order of calls.
type scriptedGetter struct {
	mu      sync.Mutex
	calls   []string
	handler func(ctx context.Context, url string, n int) (Response, error)
}

func (g *scriptedGetter) Get(ctx context.Context, url string) (Response, error) {
	g.mu.Lock()
	g.calls = append(g.calls, url)
	n := len(g.calls)
	g.mu.Unlock()
	return g.handler(ctx, url, n)
}

func ok(body string) (Response, error) {
	return Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func testOptions(rec *sleepRecorder) Options {
	opts := DefaultOptions()
	opts.sleep = rec.sleep
	return opts
}

func TestResolveFirstTrySucceeds(t *testing.T) {
	getter := &scriptedGetter{handler: func(_ context.Context, _ string, _ int) (Response, error) {
		return ok(`{"730": {"success": true}}`)
	}}
	rec := &sleepRecorder{}

	payload, err := Resolve(context.Background(), getter, []string{"/rel", "https://abs", "https://relay"}, testOptions(rec))
	require.NoError(t, err)
	require.False(t, payload.IsText())
	require.Equal(t, []string{"/rel"}, getter.calls)
	require.Empty(t, rec.delays)

	var decoded map[string]struct {
		Success bool `json:"success"`
	}
	require.NoError(t, payload.Decode(&decoded))
	require.True(t, decoded["730"].Success)
}

func TestResolveAllFail(t *testing.T) {
	testCases := []struct {
		name     string
		urls     []string
		attempts int
		response func() (Response, error)
		check    func(t *testing.T, err error)
	}{
		{
			name:     "status",
			urls:     []string{"a", "b", "c"},
			attempts: 3,
			response: func() (Response, error) {
				return Response{StatusCode: http.StatusServiceUnavailable}, nil
			},
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
				require.Equal(t, "c", statusErr.URL)
				require.Contains(t, err.Error(), "HTTP 503")
			},
		},
		{
			name:     "transport",
			urls:     []string{"a", "b"},
			attempts: 2,
			response: func() (Response, error) {
				return Response{}, errors.New("connection reset by peer")
			},
			check: func(t *testing.T, err error) {
				var transportErr *TransportError
				require.ErrorAs(t, err, &transportErr)
				require.Equal(t, "b", transportErr.URL)
			},
		},
		{
			name:     "empty body",
			urls:     []string{"a"},
			attempts: 4,
			response: func() (Response, error) {
				return Response{StatusCode: http.StatusOK}, nil
			},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrEmptyBody)
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			getter := &scriptedGetter{handler: func(_ context.Context, _ string, _ int) (Response, error) {
				return test.response()
			}}
			rec := &sleepRecorder{}
			opts := testOptions(rec)
			opts.Attempts = test.attempts

			_, err := Resolve(context.Background(), getter, test.urls, opts)
			require.Error(t, err)
			require.Len(t, getter.calls, len(test.urls)*test.attempts)
			test.check(t, err)
		})
	}
}

func TestResolveBackoffSchedule(t *testing.T) {
	getter := &scriptedGetter{handler: func(_ context.Context, url string, n int) (Response, error) {
		if url == "first" {
			return Response{StatusCode: http.StatusBadGateway}, nil
		}
		if n < 6 {
			return Response{}, errors.New("dial tcp: no such host")
		}
		return ok(`[]`)
	}}
	rec := &sleepRecorder{}

	var attempts []call
	opts := testOptions(rec)
	opts.OnAttempt = func(a Attempt) {
		attempts = append(attempts, call{url: a.URL, try: a.Try})
	}

	_, err := Resolve(context.Background(), getter, []string{"first", "second"}, opts)
	require.NoError(t, err)

	// every url restarts at try 0, so the schedule repeats
	require.Equal(t, []time.Duration{
		600 * time.Millisecond, 1500 * time.Millisecond,
		600 * time.Millisecond, 1500 * time.Millisecond,
	}, rec.delays)

	diff := cmp.Diff([]call{
		{"first", 0}, {"first", 1}, {"first", 2},
		{"second", 0}, {"second", 1}, {"second", 2},
	}, attempts, cmp.AllowUnexported(call{}))
	require.Empty(t, diff)
}

func TestResolveCustomBackoffs(t *testing.T) {
	getter := &scriptedGetter{handler: func(_ context.Context, _ string, _ int) (Response, error) {
		return Response{StatusCode: http.StatusTooManyRequests}, nil
	}}
	rec := &sleepRecorder{}
	opts := testOptions(rec)
	opts.Attempts = 4
	// index 0 is never slept on and missing entries are no delay
	opts.Backoffs = []time.Duration{time.Hour, 0, 10 * time.Millisecond}

	_, err := Resolve(context.Background(), getter, []string{"only"}, opts)
	require.Error(t, err)
	require.Equal(t, []time.Duration{10 * time.Millisecond}, rec.delays)
	require.Len(t, getter.calls, 4)
}

func TestResolveTextFallback(t *testing.T) {
	getter := &scriptedGetter{handler: func(_ context.Context, _ string, _ int) (Response, error) {
		return ok(`<html>not json</html>`)
	}}

	payload, err := Resolve(context.Background(), getter, []string{"x"}, testOptions(&sleepRecorder{}))
	require.NoError(t, err)
	require.True(t, payload.IsText())
	require.Nil(t, payload.Value)
	require.Equal(t, "<html>not json</html>", payload.Text())

	var v map[string]any
	require.Error(t, payload.Decode(&v))
}

func TestPayloadDecodeStringifiedJSON(t *testing.T) {
	payload := newPayload([]byte(`"{\"name\": \"Portal 2\", \"ccu\": 1234}"`))
	require.False(t, payload.IsText())

	var app struct {
		Name string `json:"name"`
		CCU  int    `json:"ccu"`
	}
	require.NoError(t, payload.Decode(&app))
	require.Equal(t, "Portal 2", app.Name)
	require.Equal(t, 1234, app.CCU)
}

func TestResolveTimeout(t *testing.T) {
	getter := &scriptedGetter{handler: func(ctx context.Context, _ string, _ int) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}}
	opts := testOptions(&sleepRecorder{})
	opts.Timeout = 20 * time.Millisecond
	opts.Attempts = 2

	_, err := Resolve(context.Background(), getter, []string{"slow"}, opts)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
	require.Len(t, getter.calls, 2)
}

func TestResolveCancelledMidFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	getter := &scriptedGetter{handler: func(ctx context.Context, _ string, _ int) (Response, error) {
		close(started)
		<-ctx.Done()
		return Response{}, ctx.Err()
	}}

	go func() {
		<-started
		cancel()
	}()

	begin := time.Now()
	payload, err := Resolve(ctx, getter, []string{"a", "b"}, DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, payload.Raw)
	require.Len(t, getter.calls, 1)
	require.Less(t, time.Since(begin), time.Second)
}

func TestResolveCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	getter := &scriptedGetter{handler: func(_ context.Context, _ string, _ int) (Response, error) {
		cancel()
		return Response{StatusCode: http.StatusInternalServerError}, nil
	}}

	_, err := Resolve(ctx, getter, []string{"a"}, DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, getter.calls, 1)
}

func TestResolveNoEndpoints(t *testing.T) {
	_, err := Resolve(context.Background(), &scriptedGetter{}, nil, DefaultOptions())
	require.ErrorIs(t, err, ErrNoEndpoints)
}

func TestRestyGetter(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := resty.New().SetBaseURL(server.URL)
	rec := &sleepRecorder{}

	payload, err := Resolve(
		context.Background(),
		NewRestyGetter(client),
		[]string{"/api/appdetails?appids=730"},
		testOptions(rec),
	)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ok": true}, payload.Value)
	require.EqualValues(t, 2, hits.Load())
	require.Equal(t, []time.Duration{600 * time.Millisecond}, rec.delays)
}
