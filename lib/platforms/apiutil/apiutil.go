package apiutil

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// DefaultRelay is a public CORS relay that returns the raw upstream body.
const DefaultRelay = "https://api.allorigins.win/raw?url="

// Candidates builds the usual endpoint list for one resource: the
// same-origin proxy path (only when a proxy is configured), the absolute
// url, then the absolute url wrapped by a relay (when one is configured).
func Candidates(hasProxy bool, proxyPath, absolute, relay string) []string {
	urls := make([]string, 0, 3)
	if hasProxy && proxyPath != "" {
		urls = append(urls, proxyPath)
	}
	urls = append(urls, absolute)
	if relay != "" {
		urls = append(urls, relay+url.QueryEscape(absolute))
	}
	return urls
}

// Number accepts a JSON number, a numeric string or null. Anything that
// can't be read as a finite number decodes to 0 with Valid false.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n Number) Int() int64 {
	return int64(n.Value)
}

// Text accepts a JSON string or number and keeps it as a string, null and
// other shapes decode to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return nil
		}
		*t = Text(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = Text(data)
	}
	return nil
}
