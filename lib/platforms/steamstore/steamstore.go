package steamstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"steamdeals-backend/lib/platforms/apiutil"
	"steamdeals-backend/lib/resilient"
	"steamdeals-backend/lib/restyutil"
	"steamdeals-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("steamdeals.lib.platforms.steamstore")

const DefaultBaseUrl = "https://store.steampowered.com"

// Language is sent as the "l" parameter, descriptions come back in french.
const Language = "french"

var ErrMissingAppID = errors.New("appid manquant")

type PriceOverview struct {
	Currency        string         `json:"currency"`
	Initial         apiutil.Number `json:"initial"`
	Final           apiutil.Number `json:"final"`
	DiscountPercent apiutil.Number `json:"discount_percent"`
}

type AppDetails struct {
	SteamAppID       apiutil.Text   `json:"steam_appid"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	IsFree           bool           `json:"is_free"`
	ShortDescription string         `json:"short_description"`
	Publishers       []string       `json:"publishers"`
	Developers       []string       `json:"developers"`
	HeaderImage      string         `json:"header_image"`
	PriceOverview    *PriceOverview `json:"price_overview"`
}

type entry struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type ClientOptions struct {
	BaseUrl string
	// ProxyBaseUrl is a same-origin proxy serving /api/appdetails, it is
	// tried first when set.
	ProxyBaseUrl     string
	Relay            string
	BypassCloudflare bool
	Resolve          resilient.Options
	Output           restyutil.InstrumentOutput
}

type Client struct {
	baseUrl  string
	hasProxy bool
	relay    string
	getter   resilient.Getter
	resolve  resilient.Options
}

func NewClient(opts ClientOptions) *Client {
	http := restyutil.NewClient(restyutil.ClientOptions{
		BaseUrl:          opts.ProxyBaseUrl,
		TracerName:       "steamdeals.lib.platforms.steamstore/http",
		BypassCloudflare: opts.BypassCloudflare,
		Output:           opts.Output,
	})
	client := NewClientWithGetter(opts.BaseUrl, opts.Relay, resilient.NewRestyGetter(http), opts.Resolve)
	client.hasProxy = opts.ProxyBaseUrl != ""
	return client
}

// NewClientWithGetter is NewClient with the transport swapped out, it never
// tries a same-origin proxy.
func NewClientWithGetter(baseUrl, relay string, getter resilient.Getter, resolve resilient.Options) *Client {
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	if resolve.Telemetry == nil {
		resolve.Telemetry = telemetry.NewScopedAPI("steamstore", telemetry.SlogAPI{})
	}
	return &Client{
		baseUrl: baseUrl,
		relay:   relay,
		getter:  getter,
		resolve: resolve,
	}
}

func appDetailsPath(appid string) string {
	values := url.Values{}
	values.Set("appids", appid)
	values.Set("l", Language)
	return "/api/appdetails?" + values.Encode()
}

// AppDetails returns the store page data of appid, or nil when the store
// reports it as unsuccessful (unknown or region locked apps).
func (c *Client) AppDetails(ctx context.Context, appid string) (*AppDetails, error) {
	appid = strings.TrimSpace(appid)
	if appid == "" {
		return nil, ErrMissingAppID
	}

	ctx, span := tracer.Start(ctx, "AppDetails")
	defer span.End()
	span.SetAttributes(attribute.String("appid", appid))

	path := appDetailsPath(appid)
	payload, err := resilient.Resolve(
		ctx, c.getter,
		apiutil.Candidates(c.hasProxy, path, c.baseUrl+path, c.relay),
		c.resolve,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch app details")
		return nil, err
	}

	var entries map[string]entry
	err = payload.Decode(&entries)
	if err != nil {
		// anything that isn't an object keyed by appid carries no data
		c.resolve.Telemetry.ReportDebug("unexpected appdetails payload", appid, err)
		return nil, nil
	}
	found, ok := entries[appid]
	if !ok || !found.Success || len(found.Data) == 0 {
		return nil, nil
	}

	var details AppDetails
	err = json.Unmarshal(found.Data, &details)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid app details")
		return nil, fmt.Errorf("decode appdetails %s: %w", appid, err)
	}
	return &details, nil
}
