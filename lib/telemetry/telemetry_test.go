package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type report struct {
	kind string
	id   string
}

type recordingAPI struct {
	reports []report
}

func (r *recordingAPI) ReportBroken(id string, params ...any) {
	r.reports = append(r.reports, report{"broken", id})
}

func (r *recordingAPI) ReportWarning(id string, params ...any) {
	r.reports = append(r.reports, report{"warning", id})
}

func (r *recordingAPI) ReportDebug(msg string, params ...any) {
	r.reports = append(r.reports, report{"debug", msg})
}

func (r *recordingAPI) ReportCount(id string, count int64) {
	r.reports = append(r.reports, report{"count", id})
}

func TestScopedAPI(t *testing.T) {
	inner := &recordingAPI{}
	api := NewScopedAPI("steamspy", NewScopedAPI("resolve", inner))

	api.ReportBroken("exhausted", 3)
	api.ReportWarning("attempt")
	api.ReportDebug("unexpected payload")
	api.ReportCount("deals", 60)

	require.Equal(t, []report{
		{"broken", "resolve.steamspy.exhausted"},
		{"warning", "resolve.steamspy.attempt"},
		{"debug", "resolve: steamspy: unexpected payload"},
		{"count", "resolve.steamspy.deals"},
	}, inner.reports)
}

func TestNilInnerDefaultsToSlog(t *testing.T) {
	api := NewScopedAPI("proxy", nil)
	require.IsType(t, SlogAPI{}, api.inner)
	api.ReportWarning("forward", "https://steamspy.com", "boom")
}

func TestSetupDisabledWithoutEndpoints(t *testing.T) {
	require.NoError(t, Setup(context.Background(), "test", Config{}))
	require.NoError(t, Shutdown(context.Background()))

}

func TestOtlpTransport(t *testing.T) {
	testCases := []struct {
		name     string
		conn     OtlpConnConfig
		kind     transport
		endpoint string
	}{
		{name: "none", conn: OtlpConnConfig{}, kind: transportNone},
		{name: "http", conn: OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}, kind: transportHttp, endpoint: "http://localhost:4318"},
		{name: "grpc", conn: OtlpConnConfig{GrpcEndpoint: "http://localhost:4317"}, kind: transportGrpc, endpoint: "http://localhost:4317"},
		{
			name:     "grpc wins",
			conn:     OtlpConnConfig{GrpcEndpoint: "http://localhost:4317", HttpEndpoint: "http://localhost:4318"},
			kind:     transportGrpc,
			endpoint: "http://localhost:4317",
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			kind, endpoint := test.conn.transport()
			require.Equal(t, test.kind, kind)
			require.Equal(t, test.endpoint, endpoint)
			require.Equal(t, test.kind != transportNone, test.conn.enabled())
		})
	}

	tracesOnly := OtlpConfig{Traces: OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}}
	require.True(t, tracesOnly.enabled())
	require.False(t, tracesOnly.Metrics.enabled())
}
