package steamspy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"steamdeals-backend/lib/platforms/apiutil"
	"steamdeals-backend/lib/resilient"
	"steamdeals-backend/lib/restyutil"
	"steamdeals-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("steamdeals.lib.platforms.steamspy")

const DefaultBaseUrl = "https://steamspy.com"

var ErrMissingAppID = errors.New("appid manquant")

// Tags maps a user tag to its vote count. SteamSpy sends [] instead of {}
// for apps without tags.
type Tags map[string]int

func (t *Tags) UnmarshalJSON(data []byte) error {
	*t = Tags{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var raw map[string]apiutil.Number
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	for tag, votes := range raw {
		(*t)[tag] = int(votes.Int())
	}
	return nil
}

// App is the appdetails answer of SteamSpy. Prices are USD cents.
type App struct {
	AppID          apiutil.Text   `json:"appid"`
	Name           string         `json:"name"`
	Developer      string         `json:"developer"`
	Publisher      string         `json:"publisher"`
	ScoreRank      apiutil.Text   `json:"score_rank"`
	Positive       apiutil.Number `json:"positive"`
	Negative       apiutil.Number `json:"negative"`
	Owners         string         `json:"owners"`
	AverageForever apiutil.Number `json:"average_forever"`
	Average2Weeks  apiutil.Number `json:"average_2weeks"`
	MedianForever  apiutil.Number `json:"median_forever"`
	Price          apiutil.Number `json:"price"`
	InitialPrice   apiutil.Number `json:"initialprice"`
	Discount       apiutil.Number `json:"discount"`
	CCU            apiutil.Number `json:"ccu"`
	Languages      string         `json:"languages"`
	Genre          string         `json:"genre"`
	Tags           Tags           `json:"tags"`
}

type ClientOptions struct {
	BaseUrl string
	// ProxyBaseUrl is a same-origin proxy serving /api.php, it is tried first
	// when set.
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
		TracerName:       "steamdeals.lib.platforms.steamspy/http",
		BypassCloudflare: opts.BypassCloudflare,
		Output:           opts.Output,
	})
	client := NewClientWithGetter(opts.BaseUrl, opts.Relay, resilient.NewRestyGetter(http), opts.Resolve)
	client.hasProxy = opts.ProxyBaseUrl != ""
	return client
}

func NewClientWithGetter(baseUrl, relay string, getter resilient.Getter, resolve resilient.Options) *Client {
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	if resolve.Telemetry == nil {
		resolve.Telemetry = telemetry.NewScopedAPI("steamspy", telemetry.SlogAPI{})
	}
	return &Client{
		baseUrl: baseUrl,
		relay:   relay,
		getter:  getter,
		resolve: resolve,
	}
}

// AppDetailsPath is the request path of the appdetails call, shared with the
// proxy which forwards it as is.
func AppDetailsPath(appid string) string {
	values := url.Values{}
	values.Set("request", "appdetails")
	values.Set("appid", appid)
	return "/api.php?" + values.Encode()
}

// AppDetails fetches the SteamSpy stats of appid. Relays that hand back the
// document as a JSON string are unwrapped.
func (c *Client) AppDetails(ctx context.Context, appid string) (*App, error) {
	appid = strings.TrimSpace(appid)
	if appid == "" {
		return nil, ErrMissingAppID
	}

	ctx, span := tracer.Start(ctx, "AppDetails")
	defer span.End()
	span.SetAttributes(attribute.String("appid", appid))

	path := AppDetailsPath(appid)
	payload, err := resilient.Resolve(
		ctx, c.getter,
		apiutil.Candidates(c.hasProxy, path, c.baseUrl+path, c.relay),
		c.resolve,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch steamspy app")
		return nil, err
	}

	var app App
	err = payload.Decode(&app)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid steamspy payload")
		return nil, err
	}
	return &app, nil
}
