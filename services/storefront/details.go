package storefront

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"steamdeals-backend/lib/htmlutil"
	"steamdeals-backend/lib/money"
	"steamdeals-backend/lib/platforms/steamspy"
	"steamdeals-backend/lib/platforms/steamstore"
)

// MaxTags is how many of the most voted tags Details keeps.
const MaxTags = 12

type Tag struct {
	Name  string
	Votes int
}

// Details is the merged view of one app from the store and SteamSpy.
// Missing text fields hold the "—" placeholder.
type Details struct {
	AppID     string
	Name      string
	Publisher string
	Developer string

	PriceLabel string
	// Discount is nil when no price source was available.
	Discount *int

	Owners         string
	CCU            int64
	AverageForever string
	Average2Weeks  string
	ScoreRank      string

	Description string
	TopTags     []Tag
	HeaderImage string
	SteamPage   string

	HasStore     bool
	HasAnalytics bool
}

// Empty reports whether neither source returned anything.
func (d Details) Empty() bool {
	return !d.HasStore && !d.HasAnalytics
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return placeholder
}

// MinutesLabel renders a playtime in minutes, adding hours past the hour
// mark ("754 min (12.6 h)").
func MinutesLabel(minutes float64) string {
	label := strconv.FormatFloat(minutes, 'f', -1, 64) + " min"
	if minutes >= 60 {
		label += fmt.Sprintf(" (%.1f h)", minutes/60)
	}
	return label
}

func topTags(tags steamspy.Tags) []Tag {
	out := make([]Tag, 0, len(tags))
	for name, votes := range tags {
		out = append(out, Tag{Name: name, Votes: votes})
	}
	slices.SortFunc(out, func(a, b Tag) int {
		if a.Votes != b.Votes {
			return cmp.Compare(b.Votes, a.Votes)
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(out) > MaxTags {
		out = out[:MaxTags]
	}
	return out
}

func price(store *steamstore.AppDetails, spy *steamspy.App, converter money.Converter) (string, *int) {
	if store != nil && store.PriceOverview != nil && store.PriceOverview.Final.Valid {
		overview := store.PriceOverview
		eur := overview.Final.Value / 100
		if overview.Currency != "EUR" {
			eur = converter.USDToEUR(eur)
		}
		discount := int(overview.DiscountPercent.Int())
		return money.FormatEUR(eur), &discount
	}
	if spy != nil && spy.Price.Valid && spy.Price.Value > 0 {
		discount := int(spy.Discount.Int())
		return money.FormatEUR(converter.USDToEUR(spy.Price.Value / 100)), &discount
	}
	return placeholder, nil
}

// Merge combines both sources, store metadata wins over SteamSpy's and the
// placeholder fills whatever neither provides. Either source may be nil.
func Merge(appid string, store *steamstore.AppDetails, spy *steamspy.App, converter money.Converter) Details {
	details := Details{
		AppID:        appid,
		HasStore:     store != nil,
		HasAnalytics: spy != nil,
		TopTags:      []Tag{},
	}
	if appid != "" {
		details.SteamPage = SteamPage(appid)
		details.HeaderImage = fmt.Sprintf("%s/%s/header.jpg", steamCdn, appid)
	}

	var storeName, storePublisher, storeDeveloper string
	if store != nil {
		storeName = store.Name
		storePublisher = strings.Join(store.Publishers, ", ")
		storeDeveloper = strings.Join(store.Developers, ", ")
		details.Description = htmlutil.StripHTML(store.ShortDescription)
	}
	var spyName, spyPublisher, spyDeveloper, spyOwners, spyRank string
	var averageForever, average2Weeks float64
	if spy != nil {
		spyName = spy.Name
		spyPublisher = spy.Publisher
		spyDeveloper = spy.Developer
		spyOwners = spy.Owners
		spyRank = string(spy.ScoreRank)
		averageForever = spy.AverageForever.Value
		average2Weeks = spy.Average2Weeks.Value
		details.CCU = spy.CCU.Int()
		details.TopTags = topTags(spy.Tags)
	}

	details.Name = firstNonEmpty(storeName, spyName)
	details.Publisher = firstNonEmpty(storePublisher, spyPublisher)
	details.Developer = firstNonEmpty(storeDeveloper, spyDeveloper)
	details.Owners = firstNonEmpty(spyOwners)
	details.ScoreRank = firstNonEmpty(spyRank)
	details.AverageForever = MinutesLabel(averageForever)
	details.Average2Weeks = MinutesLabel(average2Weeks)
	details.PriceLabel, details.Discount = price(store, spy, converter)

	return details
}
