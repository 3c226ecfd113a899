package cheapshark

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"steamdeals-backend/lib/platforms/apiutil"
	"steamdeals-backend/lib/resilient"
	"steamdeals-backend/lib/restyutil"
	"steamdeals-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("steamdeals.lib.platforms.cheapshark")

const DefaultBaseUrl = "https://www.cheapshark.com/api/1.0"

// SteamStoreID is cheapshark's id for the steam store.
const SteamStoreID = "1"

// Deal is one entry of GET /deals. Most numeric fields are sent as strings.
type Deal struct {
	DealID             string         `json:"dealID"`
	Title              string         `json:"title"`
	StoreID            string         `json:"storeID"`
	GameID             string         `json:"gameID"`
	SalePrice          string         `json:"salePrice"`
	NormalPrice        string         `json:"normalPrice"`
	Savings            apiutil.Number `json:"savings"`
	SteamRatingText    string         `json:"steamRatingText"`
	SteamRatingPercent apiutil.Number `json:"steamRatingPercent"`
	SteamRatingCount   apiutil.Number `json:"steamRatingCount"`
	SteamAppID         apiutil.Text   `json:"steamAppID"`
	DealRating         apiutil.Number `json:"dealRating"`
	Thumb              string         `json:"thumb"`
}

// IsFree reports whether the deal is listed at exactly 0.
func (d Deal) IsFree() bool {
	return strings.TrimSpace(d.SalePrice) == "0.00"
}

type Query struct {
	StoreID    string
	UpperPrice float64
	PageSize   int
	Title      string
	OnSale     bool
}

func (q Query) values() url.Values {
	values := url.Values{}
	if q.StoreID != "" {
		values.Set("storeID", q.StoreID)
	}
	if q.UpperPrice > 0 {
		values.Set("upperPrice", strconv.FormatFloat(q.UpperPrice, 'f', -1, 64))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Title != "" {
		values.Set("title", q.Title)
	}
	if q.OnSale {
		values.Set("onSale", "1")
	}
	return values
}

type ClientOptions struct {
	BaseUrl string
	// Relay, when set, is tried after the direct url (see apiutil.DefaultRelay).
	Relay            string
	BypassCloudflare bool
	Resolve          resilient.Options
	Output           restyutil.InstrumentOutput
}

type Client struct {
	baseUrl string
	relay   string
	getter  resilient.Getter
	resolve resilient.Options
}

func NewClient(opts ClientOptions) *Client {
	http := restyutil.NewClient(restyutil.ClientOptions{
		TracerName:       "steamdeals.lib.platforms.cheapshark/http",
		BypassCloudflare: opts.BypassCloudflare,
		Output:           opts.Output,
	})
	return NewClientWithGetter(opts.BaseUrl, opts.Relay, resilient.NewRestyGetter(http), opts.Resolve)
}

// NewClientWithGetter is NewClient with the transport swapped out.
func NewClientWithGetter(baseUrl, relay string, getter resilient.Getter, resolve resilient.Options) *Client {
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	if resolve.Telemetry == nil {
		resolve.Telemetry = telemetry.NewScopedAPI("cheapshark", telemetry.SlogAPI{})
	}
	return &Client{
		baseUrl: baseUrl,
		relay:   relay,
		getter:  getter,
		resolve: resolve,
	}
}

// ListDeals fetches the deals matching q. A payload that isn't a JSON array
// yields an empty list rather than an error.
func (c *Client) ListDeals(ctx context.Context, q Query) ([]Deal, error) {
	ctx, span := tracer.Start(ctx, "ListDeals")
	defer span.End()

	link := fmt.Sprintf("%s/deals?%s", c.baseUrl, q.values().Encode())
	span.SetAttributes(attribute.String("url", link))

	payload, err := resilient.Resolve(
		ctx, c.getter,
		apiutil.Candidates(false, "", link, c.relay),
		c.resolve,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch deals")
		return nil, err
	}

	return decodeDeals(payload), nil
}

func decodeDeals(payload resilient.Payload) []Deal {
	if _, isList := payload.Value.([]any); !isList {
		return []Deal{}
	}
	var deals []Deal
	err := json.Unmarshal(payload.Raw, &deals)
	if err != nil {
		return []Deal{}
	}
	return deals
}
