package money

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultUSDToEUR is used when no positive rate is configured.
const DefaultUSDToEUR = 0.95

// RateEnv overrides the configured USD to EUR rate.
const RateEnv = "STEAMDEALS_USD_EUR_RATE"

const nbsp = "\u00a0"

var printer = message.NewPrinter(language.French)

type Converter struct {
	rate float64
}

// NewConverter returns a converter using rate, falling back to
// DefaultUSDToEUR for non-positive or non-finite rates.
func NewConverter(rate float64) Converter {
	if !(rate > 0) || math.IsInf(rate, 0) {
		rate = DefaultUSDToEUR
	}
	return Converter{rate: rate}
}

func (c Converter) Rate() float64 {
	if c.rate == 0 {
		return DefaultUSDToEUR
	}
	return c.rate
}

func (c Converter) USDToEUR(usd float64) float64 {
	return usd * c.Rate()
}

// FormatEUR renders v the way fr-FR renders euros, with no-break spaces as
// group separator and before the sign ("1\u00a0234,50\u00a0€"). Amounts that
// round to zero cents are never rendered as "-0,00".
func FormatEUR(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0
	}
	return printer.Sprintf("%.2f"+nbsp+"€", v)
}

// FormatUSD is the fallback label used when a price can't be converted.
func FormatUSD(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " $"
}

// ParseAmount parses a decimal amount the upstream apis send as a string,
// ok is false for anything that isn't a finite number.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
