package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"steamdeals-backend/lib/money"
	"steamdeals-backend/lib/platforms/cheapshark"
	"steamdeals-backend/lib/platforms/steamspy"
	"steamdeals-backend/lib/platforms/steamstore"
	"steamdeals-backend/lib/telemetry"
	"steamdeals-backend/lib/textutil"
	"steamdeals-backend/lib/wilson"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("steamdeals.services.storefront")

var ErrMissingAppID = errors.New("appid manquant")

const (
	popularUpperPrice = 15
	pageSize          = 60
)

type DealSource interface {
	ListDeals(ctx context.Context, q cheapshark.Query) ([]cheapshark.Deal, error)
}

type StoreSource interface {
	AppDetails(ctx context.Context, appid string) (*steamstore.AppDetails, error)
}

type AnalyticsSource interface {
	AppDetails(ctx context.Context, appid string) (*steamspy.App, error)
}

type Options struct {
	Deals     DealSource
	Store     StoreSource
	Analytics AnalyticsSource
	Converter money.Converter
	// Z is the confidence quantile used to rank popular deals.
	Z         float64
	Telemetry telemetry.API
}

type Service struct {
	deals     DealSource
	store     StoreSource
	analytics AnalyticsSource
	converter money.Converter
	z         float64
	tel       telemetry.API
}

func NewService(opts Options) Service {
	z := opts.Z
	if z <= 0 {
		z = wilson.DefaultZ
	}
	return Service{
		deals:     opts.Deals,
		store:     opts.Store,
		analytics: opts.Analytics,
		converter: opts.Converter,
		z:         z,
		tel:       telemetry.NewScopedAPI("storefront", opts.Telemetry),
	}
}

// Popular returns the steam deals under 15 (USD, as cheapshark filters),
// most confidently well rated first.
func (s Service) Popular(ctx context.Context) ([]Card, error) {
	ctx, span := tracer.Start(ctx, "Popular")
	defer span.End()

	deals, err := s.deals.ListDeals(ctx, cheapshark.Query{
		StoreID:    cheapshark.SteamStoreID,
		UpperPrice: popularUpperPrice,
		PageSize:   pageSize,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list deals")
		return nil, err
	}

	ranked := wilson.RankFunc(deals, s.z, func(deal cheapshark.Deal) wilson.Item {
		return wilson.Item{
			ID:        deal.DealID,
			Fraction:  deal.SteamRatingPercent.Value / 100,
			Count:     deal.SteamRatingCount.Value,
			Secondary: deal.DealRating.Value,
		}
	})
	cards := make([]Card, len(ranked))
	for i, r := range ranked {
		cards[i] = newCard(r.Value, s.converter)
		cards[i].Score = r.Score
	}
	span.SetAttributes(attribute.Int("cards", len(cards)))
	return cards, nil
}

// SearchResult holds every matching card in upstream order along with the
// same cards split by price.
type SearchResult struct {
	Query string
	Cards []Card
	Under []Card
	Over  []Card
}

func (r *SearchResult) Empty() bool {
	return r == nil || len(r.Cards) == 0
}

// Best returns the card whose title is closest to the query, nil when there
// are no results.
func (r *SearchResult) Best() *Card {
	if r.Empty() {
		return nil
	}
	titles := make([]string, len(r.Cards))
	for i, c := range r.Cards {
		titles[i] = c.Title
	}
	idx := textutil.BestMatch(r.Query, titles)
	if idx < 0 {
		return nil
	}
	return &r.Cards[idx]
}

// Search looks deals up by title, on sale or not. A blank title is not a
// search and yields a nil result without error.
func (s Service) Search(ctx context.Context, title string) (*SearchResult, error) {
	query := strings.TrimSpace(title)
	if query == "" {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	deals, err := s.deals.ListDeals(ctx, cheapshark.Query{
		StoreID:  cheapshark.SteamStoreID,
		PageSize: pageSize,
		Title:    query,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to search deals")
		return nil, err
	}

	result := &SearchResult{
		Query: query,
		Cards: make([]Card, 0, len(deals)),
		Under: []Card{},
		Over:  []Card{},
	}
	for _, deal := range deals {
		card := newCard(deal, s.converter)
		card.Similarity = textutil.Similarity(query, card.Title)
		result.Cards = append(result.Cards, card)
		if card.IsUnder() {
			result.Under = append(result.Under, card)
		} else {
			result.Over = append(result.Over, card)
		}
	}
	return result, nil
}

// Details fetches the store page and the SteamSpy stats of appid
// concurrently and merges them. It only fails when both sources fail.
func (s Service) Details(ctx context.Context, appid string) (Details, error) {
	appid = strings.TrimSpace(appid)
	if appid == "" {
		return Details{}, ErrMissingAppID
	}

	ctx, span := tracer.Start(ctx, "Details")
	defer span.End()
	span.SetAttributes(attribute.String("appid", appid))

	var (
		wg       sync.WaitGroup
		store    *steamstore.AppDetails
		storeErr error
		spy      *steamspy.App
		spyErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		spy, spyErr = s.analytics.AppDetails(ctx, appid)
	}()
	go func() {
		defer wg.Done()
		store, storeErr = s.store.AppDetails(ctx, appid)
	}()
	wg.Wait()

	if spyErr != nil && storeErr != nil {
		span.RecordError(spyErr)
		span.SetStatus(codes.Error, "both sources failed")
		return Details{}, fmt.Errorf("details %s: %w (store: %w)", appid, spyErr, storeErr)
	}
	if spyErr != nil {
		s.tel.ReportWarning("details-analytics", appid, spyErr)
		spy = nil
	}
	if storeErr != nil {
		s.tel.ReportWarning("details-store", appid, storeErr)
		store = nil
	}

	return Merge(appid, store, spy, s.converter), nil
}
