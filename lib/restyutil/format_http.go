package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

const noBody = "<NO BODY AVAILABLE>"

// writeHeaders writes one "Key: Value" line per header value, keys sorted so
// two dumps of the same exchange are identical.
func writeHeaders(out *strings.Builder, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

// requestBody replays the outgoing body. GET requests carry a GetBody that
// hands back a nil reader.
func requestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return noBody
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	if body == nil || body == http.NoBody {
		return noBody
	}
	defer body.Close()

	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	if len(contents) == 0 {
		return noBody
	}
	return string(contents)
}

// landedUrl is the url the exchange ended on, following a Location header
// when upstream redirected.
func landedUrl(res *resty.Response) string {
	if res.RawResponse != nil {
		if location, err := res.RawResponse.Location(); err == nil {
			return location.String()
		}
	}
	return res.Request.URL
}

func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder

	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if raw := res.Request.RawRequest; raw != nil {
		writeHeaders(&out, raw.Header)
		out.WriteString("\n")
	}
	out.WriteString(requestBody(res.Request.RawRequest))

	out.WriteString("\n\n---- RESPONSE ----\n\n")
	fmt.Fprintf(&out, "%d %s\n\n", res.StatusCode(), landedUrl(res))
	writeHeaders(&out, res.Header())
	out.WriteString("\n")

	body := res.String()
	if body == "" {
		body = noBody
	}
	out.WriteString(body)
	return out.String()
}
