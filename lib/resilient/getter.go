package resilient

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Response is what a Getter hands back for a completed request, whatever
// its status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Getter issues a single GET bound to ctx, cancelling ctx must abort the
// request. A non-nil error means the transport never produced a response.
type Getter interface {
	Get(ctx context.Context, url string) (Response, error)
}

// GetterFunc adapts a plain function to Getter.
type GetterFunc func(ctx context.Context, url string) (Response, error)

func (f GetterFunc) Get(ctx context.Context, url string) (Response, error) {
	return f(ctx, url)
}

// RestyGetter implements Getter on top of a resty client. Relative urls are
// resolved against the client's base url.
type RestyGetter struct {
	client *resty.Client
}

func NewRestyGetter(client *resty.Client) RestyGetter {
	return RestyGetter{client: client}
}

func (g RestyGetter) Get(ctx context.Context, url string) (Response, error) {
	res, err := g.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
	}, nil
}
