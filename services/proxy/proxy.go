// Package proxy is the same-origin proxy the platform clients try first: it
// forwards SteamSpy and Steam store calls with browser headers and adds
// permissive CORS.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"steamdeals-backend/lib/platforms/steamspy"
	"steamdeals-backend/lib/restyutil"
	"steamdeals-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("steamdeals.services.proxy")

const DefaultTimeout = 8 * time.Second

type Options struct {
	SteamSpyBaseUrl  string
	StoreBaseUrl     string
	Timeout          time.Duration
	BypassCloudflare bool
	Output           restyutil.InstrumentOutput
	Telemetry        telemetry.API
}

type Server struct {
	spyBaseUrl   string
	storeBaseUrl string
	client       *resty.Client
	tel          telemetry.API
}

func NewServer(opts Options) Server {
	spyBaseUrl := strings.TrimSuffix(opts.SteamSpyBaseUrl, "/")
	if spyBaseUrl == "" {
		spyBaseUrl = steamspy.DefaultBaseUrl
	}
	storeBaseUrl := strings.TrimSuffix(opts.StoreBaseUrl, "/")
	if storeBaseUrl == "" {
		storeBaseUrl = "https://store.steampowered.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return Server{
		spyBaseUrl:   spyBaseUrl,
		storeBaseUrl: storeBaseUrl,
		client: restyutil.NewClient(restyutil.ClientOptions{
			TracerName:       "steamdeals.services.proxy/http",
			Timeout:          timeout,
			BypassCloudflare: opts.BypassCloudflare,
			Output:           opts.Output,
		}),
		tel: telemetry.NewScopedAPI("proxy", opts.Telemetry),
	}
}

// Handler returns the routes wrapped with CORS and request logging.
func (s Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/steamspy", s.handleSteamSpy).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api.php", s.forwardTo(s.spyBaseUrl)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/appdetails", s.forwardTo(s.storeBaseUrl)).Methods(http.MethodGet, http.MethodOptions)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type"},
		OptionsSuccessStatus: http.StatusOK,
	})
	return logRequests(corsHandler.Handler(router))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s Server) get(ctx context.Context, link string) (*resty.Response, error) {
	return s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(link)
}

// handleSteamSpy fetches the SteamSpy appdetails of ?appid= and relays the
// document, failures are reported as {"error": ...}.
func (s Server) handleSteamSpy(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracer.Start(r.Context(), "handleSteamSpy")
	defer span.End()

	appid := strings.TrimSpace(r.URL.Query().Get("appid"))
	if appid == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: steamspy.ErrMissingAppID.Error()})
		return
	}
	span.SetAttributes(attribute.String("appid", appid))

	data, err := s.fetchSteamSpy(ctx, appid)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.tel.ReportWarning("steamspy", appid, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s Server) fetchSteamSpy(ctx context.Context, appid string) (json.RawMessage, error) {
	res, err := s.get(ctx, s.spyBaseUrl+steamspy.AppDetailsPath(appid))
	if err != nil {
		return nil, err
	}
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, fmt.Errorf("HTTP %d", res.StatusCode())
	}

	var data json.RawMessage
	err = json.Unmarshal(res.Body(), &data)
	if err != nil {
		return nil, fmt.Errorf("invalid steamspy response: %w", err)
	}
	return data, nil
}

// forwardTo relays the request path and query to baseUrl as is, keeping the
// upstream status and content type.
func (s Server) forwardTo(baseUrl string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		ctx, span := tracer.Start(r.Context(), "forward")
		defer span.End()

		link := baseUrl + r.URL.Path
		if r.URL.RawQuery != "" {
			link += "?" + r.URL.RawQuery
		}
		span.SetAttributes(attribute.String("url", link))

		res, err := s.get(ctx, link)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.tel.ReportWarning("forward", link, err)
			writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
			return
		}

		contentType := res.Header().Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(res.StatusCode())
		w.Write(res.Body())
	}
}
