package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"steamdeals-backend/lib/money"
	"steamdeals-backend/lib/platforms/apiutil"
	"steamdeals-backend/services/storefront"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// per-machine overrides go in config.local.json5
		"proxy_base_url": "http://localhost:8080",
		"usd_eur_rate": 0.9,
		"attempts": 2,
		"timeout_seconds": 1.5
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		"disable_relay": true
	}`), 0600))

	t.Setenv(money.RateEnv, "")
	t.Setenv(proxyEnv, "")

	config, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", config.ProxyBaseUrl)
	require.Equal(t, 0.9, config.UsdEurRate)
	require.Empty(t, config.relay())

	opts := config.resolveOptions()
	require.Equal(t, 2, opts.Attempts)
	require.Equal(t, 1500*time.Millisecond, opts.Timeout)
	require.NotNil(t, opts.OnAttempt)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(money.RateEnv, "1.1")
	t.Setenv(proxyEnv, "http://proxy.local")

	config, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 1.1, config.UsdEurRate)
	require.Equal(t, "http://proxy.local", config.ProxyBaseUrl)
	require.Equal(t, apiutil.DefaultRelay, config.relay())

	opts := config.resolveOptions()
	require.Equal(t, 3, opts.Attempts)
	require.Equal(t, 8*time.Second, opts.Timeout)
}

func TestReadRankItems(t *testing.T) {
	items, err := readRankItems(strings.NewReader(`[
		{"id": "a", "percent": 50, "count": "10", "secondary": 1},
		{"id": "b", "percent": "100", "count": 2}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 0.5, items[0].Fraction)
	require.Equal(t, 10.0, items[0].Count)
	require.Equal(t, 1.0, items[1].Fraction)
	require.Zero(t, items[1].Secondary)

	_, err = readRankItems(strings.NewReader(`{"id": "a"}`))
	require.Error(t, err)
}

func TestRenderSearch(t *testing.T) {
	var out bytes.Buffer
	renderSearch(&out, nil)
	require.Equal(t, "Aucun résultat\n", out.String())

	out.Reset()
	renderSearch(&out, &storefront.SearchResult{
		Query: "portal",
		Cards: []storefront.Card{
			{Title: "Portal", PriceLabel: "9,50 €"},
		},
		Under: []storefront.Card{
			{Title: "Portal", PriceLabel: "9,50 €", PriceUSD: 10, HasPrice: true},
		},
	})
	rendered := out.String()
	require.Contains(t, rendered, "10.00 $")
	require.Contains(t, rendered, "Meilleure correspondance : Portal (9,50 €)")
	require.Contains(t, rendered, "Jeux de moins de 15€")
	require.Contains(t, rendered, "Autres résultats (≥ 15€)\nAucun résultat")
}

func TestRenderDetails(t *testing.T) {
	var out bytes.Buffer
	renderDetails(&out, storefront.Details{})
	require.Equal(t, "Aucune donnée\n", out.String())

	out.Reset()
	discount := 80
	renderDetails(&out, storefront.Details{
		Name:        "Portal 2",
		PriceLabel:  "1,99 €",
		Discount:    &discount,
		TopTags:     []storefront.Tag{{Name: "Puzzle", Votes: 10}, {Name: "Co-op", Votes: 8}},
		Description: "Le jeu.",
		HasStore:    true,
	})
	rendered := out.String()
	require.Contains(t, rendered, "Portal 2")
	require.Contains(t, rendered, "-80%")
	require.Contains(t, rendered, "Puzzle, Co-op")
	require.True(t, strings.HasSuffix(rendered, "\nLe jeu.\n"))
}
