package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"steamdeals-backend/lib/money"
	"steamdeals-backend/lib/wilson"
	"steamdeals-backend/services/storefront"

	"github.com/jedib0t/go-pretty/v6/table"
)

const noResults = "Aucun résultat"

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func ratingLabel(card storefront.Card) string {
	if card.RatingCount <= 0 {
		return "—"
	}
	return fmt.Sprintf("%s%% (%d avis)", strconv.FormatFloat(card.RatingPercent, 'f', -1, 64), card.RatingCount)
}

func usdLabel(card storefront.Card) string {
	if !card.HasPrice || card.PriceUSD == 0 {
		return "—"
	}
	return money.FormatUSD(card.PriceUSD)
}

func renderCards(out io.Writer, title string, cards []storefront.Card, withScore bool) {
	if len(cards) == 0 {
		if title != "" {
			fmt.Fprintln(out, title)
		}
		fmt.Fprintln(out, noResults)
		return
	}

	t := newTable(out, title)
	header := table.Row{"#", "Titre", "Prix", "USD", "Avis", "App", "Lien"}
	if withScore {
		header = append(header, "Score")
	}
	t.AppendHeader(header)

	for i, card := range cards {
		row := table.Row{
			i + 1,
			card.Title,
			card.PriceLabel,
			usdLabel(card),
			ratingLabel(card),
			card.SteamAppID,
			card.Link,
		}
		if withScore {
			row = append(row, fmt.Sprintf("%.4f", card.Score))
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderSearch(out io.Writer, result *storefront.SearchResult) {
	if result.Empty() {
		fmt.Fprintln(out, noResults)
		return
	}
	if best := result.Best(); best != nil {
		fmt.Fprintf(out, "Meilleure correspondance : %s (%s)\n", best.Title, best.PriceLabel)
	}
	renderCards(out, fmt.Sprintf("Jeux de moins de %.0f€", storefront.UnderThreshold), result.Under, false)
	renderCards(out, fmt.Sprintf("Autres résultats (≥ %.0f€)", storefront.UnderThreshold), result.Over, false)
}

func renderDetails(out io.Writer, details storefront.Details) {
	if details.Empty() {
		fmt.Fprintln(out, "Aucune donnée")
		return
	}

	discount := "—"
	if details.Discount != nil {
		discount = fmt.Sprintf("-%d%%", *details.Discount)
	}

	tags := make([]string, len(details.TopTags))
	for i, tag := range details.TopTags {
		tags[i] = tag.Name
	}

	t := newTable(out, details.Name)
	t.AppendRows([]table.Row{
		{"Éditeur", details.Publisher},
		{"Développeur", details.Developer},
		{"Prix", details.PriceLabel},
		{"Remise", discount},
		{"Propriétaires", details.Owners},
		{"Joueurs en ligne", details.CCU},
		{"Temps moyen", details.AverageForever},
		{"Temps moyen (2 sem.)", details.Average2Weeks},
		{"Classement", details.ScoreRank},
		{"Tags", strings.Join(tags, ", ")},
		{"Image", details.HeaderImage},
		{"Page Steam", details.SteamPage},
	})
	t.Render()

	if details.Description != "" {
		fmt.Fprintf(out, "\n%s\n", details.Description)
	}
}

func renderRanked(out io.Writer, ranked []wilson.Ranked) {
	if len(ranked) == 0 {
		fmt.Fprintln(out, noResults)
		return
	}

	t := newTable(out, "")
	t.AppendHeader(table.Row{"#", "ID", "Score", "Positifs", "Avis", "Secondaire"})
	for i, r := range ranked {
		t.AppendRow(table.Row{
			i + 1,
			r.ID,
			fmt.Sprintf("%.6f", r.Score),
			fmt.Sprintf("%.1f%%", r.Fraction*100),
			r.Count,
			r.Secondary,
		})
	}
	t.Render()
}
