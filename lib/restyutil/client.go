package restyutil

import (
	"time"

	"steamdeals-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// BaseUrl is what relative urls are resolved against, usually the
	// same-origin proxy.
	BaseUrl string
	// TracerName names the spans of the client's requests.
	TracerName string
	// Timeout is a hard ceiling on top of whatever per-request deadline
	// the caller sets through the context.
	Timeout time.Duration
	// BypassCloudflare wraps the transport so direct calls to hosts behind
	// cloudflare's browser check go through.
	BypassCloudflare bool
	// Output receives request dumps while debug logging is enabled.
	Output InstrumentOutput
}

func NewClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	if opts.BaseUrl != "" {
		client.SetBaseURL(opts.BaseUrl)
	}
	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", BrowserUserAgent)

	tracerName := opts.TracerName
	if tracerName == "" {
		tracerName = "resty"
	}
	telemetry.InstrumentResty(client, tracerName)
	DumpMessages(client, opts.Output)
	return client
}
