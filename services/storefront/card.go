package storefront

import (
	"fmt"
	"net/url"

	"steamdeals-backend/lib/money"
	"steamdeals-backend/lib/platforms/cheapshark"
)

const (
	platformSteam = "Steam"
	steamCdn      = "https://cdn.cloudflare.steamstatic.com/steam/apps"
	freeLabel     = "Gratuit"
	placeholder   = "—"
)

// UnderThreshold is the EUR price splitting search results in two groups.
const UnderThreshold = 15.0

// Card is one deal as shown in a list.
type Card struct {
	ID         string
	SteamAppID string
	Title      string
	PriceLabel string
	// PriceEUR and PriceUSD are only meaningful when HasPrice is set.
	PriceEUR float64
	PriceUSD float64
	HasPrice bool
	Platform string
	Link     string
	// Images are ordered from the preferred picture to the last resort.
	Images []string

	RatingPercent float64
	RatingCount   int64
	// Score is the wilson lower bound the card was ranked with, 0 outside
	// of Popular.
	Score float64
	// Similarity to the query, only set by Search.
	Similarity float64
}

// IsUnder reports whether the card belongs with the cheap group.
func (c Card) IsUnder() bool {
	return c.HasPrice && c.PriceEUR <= UnderThreshold
}

func SteamImageCandidates(appid string) []string {
	if appid == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s/%s/capsule_616x353.jpg", steamCdn, appid),
		fmt.Sprintf("%s/%s/capsule_467x181.jpg", steamCdn, appid),
		fmt.Sprintf("%s/%s/header.jpg", steamCdn, appid),
		fmt.Sprintf("%s/%s/capsule_231x87.jpg", steamCdn, appid),
	}
}

func SteamPage(appid string) string {
	return "https://store.steampowered.com/app/" + appid
}

func dealLink(deal cheapshark.Deal) string {
	appid := string(deal.SteamAppID)
	if appid != "" {
		return SteamPage(appid)
	}
	return "https://www.cheapshark.com/redirect?dealID=" + url.QueryEscape(deal.DealID)
}

func newCard(deal cheapshark.Deal, converter money.Converter) Card {
	appid := string(deal.SteamAppID)
	card := Card{
		ID:            deal.DealID,
		SteamAppID:    appid,
		Title:         deal.Title,
		Platform:      platformSteam,
		Link:          dealLink(deal),
		Images:        SteamImageCandidates(appid),
		RatingPercent: deal.SteamRatingPercent.Value,
		RatingCount:   deal.SteamRatingCount.Int(),
	}
	if deal.Thumb != "" {
		card.Images = append(card.Images, deal.Thumb)
	}

	switch usd, ok := money.ParseAmount(deal.SalePrice); {
	case deal.IsFree():
		card.PriceLabel = freeLabel
		card.HasPrice = true
	case ok:
		card.PriceUSD = usd
		card.PriceEUR = converter.USDToEUR(usd)
		card.HasPrice = true
		card.PriceLabel = money.FormatEUR(card.PriceEUR)
	default:
		card.PriceLabel = placeholder
	}
	return card
}
