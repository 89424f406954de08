package router

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/didip/tollbooth"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/adapters/triplelift"
	"github.com/prebid/tlx-bridge/cache"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/endpoints"
	prometheusmetrics "github.com/prebid/tlx-bridge/metrics/prometheus"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/rs/cors"
)

const schemaDirectory = "static/bidder-params"

// NewJsonDirectoryServer is used to serve .json files from a directory as a single blob. For example,
// given a directory containing the files "a.json" and "b.json", this returns a Handle which serves JSON like:
//
//	{
//	  "a": { ... content from the file a.json ... },
//	  "b": { ... content from the file b.json ... }
//	}
//
// This function stores the file contents in memory, and should not be used on large directories.
// If the root directory, or any of the files in it, cannot be read, then the program will exit.
func NewJsonDirectoryServer(schemaDirectory string, validator openrtb_ext.BidderParamValidator) httprouter.Handle {
	files, err := os.ReadDir(schemaDirectory)
	if err != nil {
		glog.Fatalf("Failed to read directory %s: %v", schemaDirectory, err)
	}

	data := make(map[string]json.RawMessage, len(files))
	for _, file := range files {
		bidder := strings.TrimSuffix(file.Name(), ".json")
		bidderName, isValid := openrtb_ext.GetBidderName(bidder)
		if !isValid {
			glog.Fatalf("Schema exists for an unknown bidder: %s", bidder)
		}
		data[bidder] = json.RawMessage(validator.Schema(bidderName))
	}

	response, err := json.Marshal(data)
	if err != nil {
		glog.Fatalf("Failed to marshal bidder param JSON-schema: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Add("Content-Type", "application/json")
		w.Write(response)
	}
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

type Router struct {
	*httprouter.Router
	MetricsEngine   *prometheusmetrics.Metrics
	ParamsValidator openrtb_ext.BidderParamValidator
	Shutdown        func()
}

func getTransport(cfg config.HTTPClient) *http.Transport {
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
		IdleConnTimeout: time.Duration(cfg.IdleConnTimeout) * time.Second,
	}

	if cfg.DialTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   time.Duration(cfg.DialTimeout) * time.Millisecond,
			KeepAlive: time.Duration(cfg.DialKeepAlive) * time.Second,
		}).DialContext
	}

	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
	}

	if cfg.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}

	return transport
}

// New wires the storage backend, the metrics engine and the bidder into the HTTP routes.
func New(cfg *config.Configuration) (r *Router, err error) {
	r = &Router{
		Router: httprouter.New(),
	}

	segments, err := cache.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("the bridge could not load storage: %v", err)
	}
	r.Shutdown = func() {
		if err := segments.Close(); err != nil {
			glog.Errorf("Failed to close storage: %v", err)
		}
	}

	r.MetricsEngine = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus)

	r.ParamsValidator, err = openrtb_ext.NewBidderParamsValidator(schemaDirectory)
	if err != nil {
		glog.Fatalf("Failed to create the bidder params validator. %v", err)
	}

	bidder, err := triplelift.Builder(cfg, segments, r.MetricsEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to build the bidder: %v", err)
	}

	client := &http.Client{Transport: getTransport(cfg.Client)}
	httpBidder := adapters.NewHTTPBidder(bidder, client, r.MetricsEngine)
	cycles := endpoints.NewCycleStore(time.Duration(cfg.Cycles.TTLSeconds) * time.Second)

	r.POST("/tlx/requests", endpoints.NewRequestsEndpoint(bidder, r.ParamsValidator, cycles, r.MetricsEngine))
	r.POST("/tlx/responses/:cycle", endpoints.NewResponsesEndpoint(bidder, cycles, r.MetricsEngine))
	r.POST("/tlx/usersync", endpoints.NewUserSyncEndpoint(bidder, cycles))
	r.POST("/tlx/auction", endpoints.NewAuctionEndpoint(cfg, httpBidder, r.ParamsValidator, cycles, r.MetricsEngine))
	r.GET("/bidders/params", NewJsonDirectoryServer(schemaDirectory, r.ParamsValidator))
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))

	return r, nil
}

// These CORS options let any publisher page call the bridge with credentials. The bridge uses
// cookies for identification only, never for authorization.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}

// RateLimit caps the request rate per client IP. Requests above the cap are answered with 429.
func RateLimit(cfg config.RateLimit, handler http.Handler) http.Handler {
	if !cfg.Enabled {
		return handler
	}
	limiter := tollbooth.NewLimiter(cfg.RequestsPerSecond, nil)
	limiter.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	limiter.SetMessage(`{"errors":[{"code":429,"message":"rate limit exceeded"}]}`)
	limiter.SetMessageContentType("application/json")
	return tollbooth.LimitHandler(limiter, handler)
}
