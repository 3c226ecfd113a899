package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"steamdeals-backend/lib/configutil"
	"steamdeals-backend/lib/money"
	"steamdeals-backend/lib/platforms/apiutil"
	"steamdeals-backend/lib/platforms/cheapshark"
	"steamdeals-backend/lib/platforms/steamspy"
	"steamdeals-backend/lib/platforms/steamstore"
	"steamdeals-backend/lib/resilient"
	"steamdeals-backend/lib/restyutil"
	"steamdeals-backend/services/storefront"
)

const proxyEnv = "STEAMDEALS_PROXY_BASE_URL"

type Config struct {
	// ProxyBaseUrl points at a running steamdeals-proxy, the store and
	// SteamSpy calls go through it first when set.
	ProxyBaseUrl string `json:"proxy_base_url"`
	// Relay overrides the public CORS relay tried last.
	Relay        string  `json:"relay"`
	DisableRelay bool    `json:"disable_relay"`
	UsdEurRate   float64 `json:"usd_eur_rate"`
	// BypassCloudflare swaps in a transport that passes cloudflare's
	// browser check on direct calls.
	BypassCloudflare bool    `json:"bypass_cloudflare"`
	Attempts         int     `json:"attempts"`
	TimeoutSeconds   float64 `json:"timeout_seconds"`
}

// loadConfig reads path (and its .local override). A missing file leaves
// every setting at its default, env variables win over the file.
func loadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		config = Config{}
	} else if err != nil {
		return Config{}, err
	}

	config.UsdEurRate = configutil.EnvFloat(money.RateEnv, config.UsdEurRate)
	if proxy := strings.TrimSpace(os.Getenv(proxyEnv)); proxy != "" {
		config.ProxyBaseUrl = proxy
	}
	return config, nil
}

func (c Config) relay() string {
	if c.DisableRelay {
		return ""
	}
	if c.Relay != "" {
		return c.Relay
	}
	return apiutil.DefaultRelay
}

func (c Config) resolveOptions() resilient.Options {
	opts := resilient.DefaultOptions()
	if c.Attempts > 0 {
		opts.Attempts = c.Attempts
	}
	if c.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(c.TimeoutSeconds * float64(time.Second))
	}
	opts.OnAttempt = func(a resilient.Attempt) {
		if a.Err == nil {
			return
		}
		slog.Debug(
			"attempt failed",
			"url", a.URL,
			"try", a.Try,
			"elapsed", a.Elapsed,
			"err", a.Err.Error(),
		)
	}
	return opts
}

// dumpOutput returns where request dumps for name go, nothing unless
// verbose.
func dumpOutput(verbose bool, name string) restyutil.InstrumentOutput {
	if !verbose {
		return nil
	}
	output, err := restyutil.NewFilesystemOutput(filepath.Join(".dev", "resty", name))
	if err != nil {
		slog.Warn("failed to create resty dump directory", "name", name, "err", err)
		return nil
	}
	return output
}

func newService(config Config, verbose bool) storefront.Service {
	resolve := config.resolveOptions()

	return storefront.NewService(storefront.Options{
		Deals: cheapshark.NewClient(cheapshark.ClientOptions{
			Relay:            config.relay(),
			BypassCloudflare: config.BypassCloudflare,
			Resolve:          resolve,
			Output:           dumpOutput(verbose, "cheapshark"),
		}),
		Store: steamstore.NewClient(steamstore.ClientOptions{
			ProxyBaseUrl:     config.ProxyBaseUrl,
			Relay:            config.relay(),
			BypassCloudflare: config.BypassCloudflare,
			Resolve:          resolve,
			Output:           dumpOutput(verbose, "steamstore"),
		}),
		Analytics: steamspy.NewClient(steamspy.ClientOptions{
			ProxyBaseUrl:     config.ProxyBaseUrl,
			Relay:            config.relay(),
			BypassCloudflare: config.BypassCloudflare,
			Resolve:          resolve,
			Output:           dumpOutput(verbose, "steamspy"),
		}),
		Converter: money.NewConverter(config.UsdEurRate),
	})
}
