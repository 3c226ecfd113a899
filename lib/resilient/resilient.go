// Package resilient resolves one logical JSON resource from an ordered list of
// alternative endpoints (same-origin proxy, direct url, public relay...), retrying
// each endpoint with fixed backoffs before falling through to the next one.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"steamdeals-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("steamdeals.lib.resilient")
var meter = telemetry.Meter("steamdeals.lib.resilient")

var attemptCounter, _ = meter.Int64Counter(
	"resolve_attempts",
	metric.WithDescription("requests issued by Resolve"),
)
var failureCounter, _ = meter.Int64Counter(
	"resolve_attempt_failures",
	metric.WithDescription("requests issued by Resolve that did not succeed"),
)

const (
	DefaultTimeout  = 8 * time.Second
	DefaultAttempts = 3
)

// DefaultBackoffs returns the delays applied before each try of a single url,
// index 0 is never slept on.
func DefaultBackoffs() []time.Duration {
	return []time.Duration{0, 600 * time.Millisecond, 1500 * time.Millisecond}
}

// Attempt describes one finished try, it is handed to Options.OnAttempt.
type Attempt struct {
	URLIndex int
	URL      string
	// Try is the 0-based retry index for the current url.
	Try     int
	Elapsed time.Duration
	// Err is nil for the successful attempt.
	Err error
}

type Options struct {
	// Timeout bounds every single try, the default is 8s.
	Timeout time.Duration
	// Attempts is the number of tries per url, the default is 3.
	Attempts int
	// Backoffs[i] is slept before try i of a url (for i > 0). Missing
	// entries mean no delay. A nil slice means DefaultBackoffs.
	Backoffs []time.Duration

	// OnAttempt is called synchronously after every try.
	OnAttempt func(Attempt)
	// Telemetry receives per-attempt warnings and the exhaustion report,
	// defaults to slog.
	Telemetry telemetry.API

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// DefaultOptions returns 8s per try, 3 tries per url and 0/600ms/1500ms backoffs.
func DefaultOptions() Options {
	return Options{
		Timeout:  DefaultTimeout,
		Attempts: DefaultAttempts,
		Backoffs: DefaultBackoffs(),
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Backoffs == nil {
		o.Backoffs = DefaultBackoffs()
	}
	if o.Telemetry == nil {
		o.Telemetry = telemetry.SlogAPI{}
	}
	o.Telemetry = telemetry.NewScopedAPI("resolve", o.Telemetry)
	if o.sleep == nil {
		o.sleep = sleepWithContext
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

func (o Options) backoff(try int) time.Duration {
	if try <= 0 || try >= len(o.Backoffs) {
		return 0
	}
	return o.Backoffs[try]
}

// Resolve tries every url in order, each up to opts.Attempts times, and
// returns the payload of the first try that completes with a 2xx status and a
// non-empty body. Attempts are strictly sequential.
//
// When everything fails, the last observed error is returned wrapped (see
// StatusError, TimeoutError, TransportError and ErrEmptyBody). If ctx is done,
// Resolve stops immediately and returns ctx.Err() without a payload.
func Resolve(ctx context.Context, getter Getter, urls []string, opts Options) (Payload, error) {
	if len(urls) == 0 {
		return Payload{}, ErrNoEndpoints
	}
	opts = opts.withDefaults()

	ctx, span := tracer.Start(ctx, "Resolve", trace.WithAttributes(
		attribute.Int("endpoints", len(urls)),
		attribute.Int("attempts_per_endpoint", opts.Attempts),
	))
	defer span.End()

	var lastErr error
	for urlIdx, url := range urls {
		for try := 0; try < opts.Attempts; try++ {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, "cancelled")
				return Payload{}, err
			}

			if delay := opts.backoff(try); delay > 0 {
				err := opts.sleep(ctx, delay)
				if err != nil {
					span.SetStatus(codes.Error, "cancelled")
					return Payload{}, err
				}
			}

			start := opts.now()
			payload, err := attempt(ctx, getter, url, opts.Timeout)
			rec := Attempt{
				URLIndex: urlIdx,
				URL:      url,
				Try:      try,
				Elapsed:  opts.now().Sub(start),
				Err:      err,
			}
			if opts.OnAttempt != nil {
				opts.OnAttempt(rec)
			}

			endpointAttr := attribute.Int("endpoint", urlIdx)
			attemptCounter.Add(ctx, 1, metric.WithAttributes(endpointAttr))

			if err == nil {
				span.SetAttributes(
					attribute.Int("resolved_endpoint", urlIdx),
					attribute.Int("resolved_try", try),
				)
				return payload, nil
			}

			// a cancelled caller is not a failed attempt
			if ctxErr := ctx.Err(); ctxErr != nil {
				span.SetStatus(codes.Error, "cancelled")
				return Payload{}, ctxErr
			}

			failureCounter.Add(ctx, 1, metric.WithAttributes(
				endpointAttr,
				attribute.String("kind", errorKind(err)),
			))
			opts.Telemetry.ReportWarning("attempt", url, try, err)
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = ErrNetwork
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all endpoints exhausted")
	opts.Telemetry.ReportBroken("exhausted", len(urls), lastErr)
	return Payload{}, fmt.Errorf("resolve: %w", lastErr)
}

func attempt(ctx context.Context, getter Getter, url string, timeout time.Duration) (Payload, error) {
	ctx, span := tracer.Start(ctx, "attempt", trace.WithAttributes(
		attribute.String("url", url),
	))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := getter.Get(attemptCtx, url)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = &TimeoutError{URL: url, Timeout: timeout}
		} else {
			err = &TransportError{URL: url, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Payload{}, err
	}

	span.SetAttributes(attribute.Int("status", res.StatusCode))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = &StatusError{URL: url, Code: res.StatusCode}
		span.SetStatus(codes.Error, err.Error())
		return Payload{}, err
	}
	if len(res.Body) == 0 {
		err = fmt.Errorf("%s: %w", url, ErrEmptyBody)
		span.SetStatus(codes.Error, err.Error())
		return Payload{}, err
	}

	return newPayload(res.Body), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
