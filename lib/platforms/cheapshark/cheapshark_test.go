package cheapshark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"steamdeals-backend/lib/resilient"

	"github.com/stretchr/testify/require"
)

const dealsFixture = `[
	{
		"internalName": "PORTAL2",
		"title": "Portal 2",
		"dealID": "abc%3D",
		"storeID": "1",
		"gameID": "7",
		"salePrice": "1.99",
		"normalPrice": "9.99",
		"savings": "80.080080",
		"steamRatingText": "Overwhelmingly Positive",
		"steamRatingPercent": "98",
		"steamRatingCount": "250000",
		"steamAppID": "620",
		"dealRating": "9.6",
		"thumb": "https://cdn.example/portal2.jpg"
	},
	{
		"title": "Free Thing",
		"dealID": "free",
		"storeID": "1",
		"salePrice": "0.00",
		"normalPrice": "0.00",
		"steamRatingPercent": "0",
		"steamRatingCount": "0",
		"steamAppID": null,
		"dealRating": "0.0"
	}
]`

func TestListDeals(t *testing.T) {
	queries := make(chan string, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/1.0/deals" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		queries <- r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(dealsFixture))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL + "/api/1.0"})
	deals, err := client.ListDeals(context.Background(), Query{
		StoreID:    SteamStoreID,
		UpperPrice: 15,
		PageSize:   60,
	})
	require.NoError(t, err)
	require.Equal(t, "pageSize=60&storeID=1&upperPrice=15", <-queries)
	require.Len(t, deals, 2)

	portal := deals[0]
	require.Equal(t, "Portal 2", portal.Title)
	require.Equal(t, "620", string(portal.SteamAppID))
	require.Equal(t, 98.0, portal.SteamRatingPercent.Value)
	require.EqualValues(t, 250000, portal.SteamRatingCount.Int())
	require.InDelta(t, 9.6, portal.DealRating.Value, 1e-9)
	require.False(t, portal.IsFree())

	free := deals[1]
	require.True(t, free.IsFree())
	require.Empty(t, free.SteamAppID)
	require.False(t, free.Savings.Valid)
}

func TestListDealsSearchQuery(t *testing.T) {
	var values map[string][]string
	getter := resilient.GetterFunc(func(_ context.Context, link string) (resilient.Response, error) {
		req, err := http.NewRequest(http.MethodGet, link, nil)
		require.NoError(t, err)
		values = req.URL.Query()
		return resilient.Response{StatusCode: http.StatusOK, Body: []byte(`[]`)}, nil
	})

	client := NewClientWithGetter(DefaultBaseUrl, "", getter, resilient.DefaultOptions())
	deals, err := client.ListDeals(context.Background(), Query{
		StoreID:  SteamStoreID,
		PageSize: 60,
		Title:    "half life",
	})
	require.NoError(t, err)
	require.Empty(t, deals)
	require.Equal(t, []string{"half life"}, values["title"])
	require.NotContains(t, values, "onSale")
	require.NotContains(t, values, "upperPrice")
}

func TestListDealsNonArrayPayload(t *testing.T) {
	for _, body := range []string{`{"error": "rate limited"}`, `<html>oops</html>`, `"[]"`} {
		getter := resilient.GetterFunc(func(_ context.Context, _ string) (resilient.Response, error) {
			return resilient.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
		})
		client := NewClientWithGetter(DefaultBaseUrl, "", getter, resilient.DefaultOptions())

		deals, err := client.ListDeals(context.Background(), Query{StoreID: SteamStoreID})
		require.NoError(t, err, body)
		require.NotNil(t, deals, body)
		require.Empty(t, deals, body)
	}
}

func TestListDealsFallsBackToRelay(t *testing.T) {
	var seen []string
	getter := resilient.GetterFunc(func(_ context.Context, link string) (resilient.Response, error) {
		seen = append(seen, link)
		if len(seen) <= 3 {
			return resilient.Response{StatusCode: http.StatusForbidden}, nil
		}
		return resilient.Response{StatusCode: http.StatusOK, Body: []byte(dealsFixture)}, nil
	})
	opts := resilient.DefaultOptions()
	opts.Backoffs = []time.Duration{}

	client := NewClientWithGetter(DefaultBaseUrl, "https://relay.example/raw?url=", getter, opts)
	deals, err := client.ListDeals(context.Background(), Query{StoreID: SteamStoreID})
	require.NoError(t, err)
	require.Len(t, deals, 2)
	require.Len(t, seen, 4)
	require.Equal(t, "https://relay.example/raw?url=https%3A%2F%2Fwww.cheapshark.com%2Fapi%2F1.0%2Fdeals%3FstoreID%3D1", seen[3])
}
