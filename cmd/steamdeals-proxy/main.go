package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"steamdeals-backend/lib/configutil"
	"steamdeals-backend/lib/restyutil"
	"steamdeals-backend/lib/serviceutil"
	"steamdeals-backend/lib/telemetry"
	"steamdeals-backend/services/proxy"

	"github.com/spf13/cobra"
)

type Config struct {
	Addr             string  `json:"addr"`
	SteamSpyBaseUrl  string  `json:"steamspy_base_url"`
	StoreBaseUrl     string  `json:"store_base_url"`
	TimeoutSeconds   float64 `json:"timeout_seconds"`
	BypassCloudflare bool    `json:"bypass_cloudflare"`
}

const addrEnv = "STEAMDEALS_PROXY_ADDR"

var (
	verbose    bool
	configPath string
)

func loadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		config = Config{}
	} else if err != nil {
		return Config{}, err
	}
	if addr := os.Getenv(addrEnv); addr != "" {
		config.Addr = addr
	}
	if config.Addr == "" {
		config.Addr = "127.0.0.1:8080"
	}
	return config, nil
}

var rootCmd = &cobra.Command{
	Use:   "steamdeals-proxy",
	Short: "steamdeals-proxy forwards SteamSpy and Steam store calls with CORS enabled.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		telemetry.InitSlog(verbose)

		config, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		err = telemetry.SetupFromEnv(ctx, "cmd/steamdeals-proxy")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer func() {
			err := telemetry.Shutdown(context.Background())
			if err != nil {
				slog.Error("failed to shutdown telemetry", "err", err.Error())
			}
		}()
		telemetry.InstrumentPerfStats(ctx)

		var output restyutil.InstrumentOutput
		if verbose {
			fsOutput, err := restyutil.NewFilesystemOutput(".dev/resty/proxy")
			if err != nil {
				serviceutil.Fatal("failed to create resty dump directory", err)
			}
			output = fsOutput
		}

		server := proxy.NewServer(proxy.Options{
			SteamSpyBaseUrl:  config.SteamSpyBaseUrl,
			StoreBaseUrl:     config.StoreBaseUrl,
			Timeout:          time.Duration(config.TimeoutSeconds * float64(time.Second)),
			BypassCloudflare: config.BypassCloudflare,
			Output:           output,
		})

		err = serviceutil.StartHttpServer(ctx, config.Addr, server.Handler())
		if err != nil {
			serviceutil.Fatal("failed to serve", err)
		}
		slog.Info("proxy stopped")
	},
}

func main() {
	configutil.LoadDotenv()

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logs and request dumps under .dev/resty/proxy.")
	rootCmd.Flags().StringVar(&configPath, "config", "proxy.json5", "The config file to read.")

	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
