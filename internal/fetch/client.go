// Package fetch implements the HTTP client for the remote availability
// endpoint. The client batches store numbers into chunked requests, respects
// a shared rate limiter, and classifies failures into model.ErrorKind so the
// scheduler can decide retry policy. It never retries internally.
//
// Wire schema (one request per chunk of stores):
//
//	GET {base}/availability?country=US&line=MacBookPro&store=R001&store=R042
//
//	{"stores": [
//	  {"storeNumber": "R001", "partsAvailability": ["MK1E3LL/A"], "error": ""}
//	]}
//
// An entry-level "error" marks a store-level soft failure: the store counts
// as having zero records and the cycle continues. Only when every requested
// store fails does Fetch return an aggregate error.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/example/stockwatch/internal/model"
)

// maxStoresPerRequest is the batch limit of the availability endpoint.
const maxStoresPerRequest = 10

// Client is the availability endpoint HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      bool
}

// NewClient creates a Client with the given timeout and request rate.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, debug bool) *Client {
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		debug:   debug,
	}
}

// availabilityResponse is the wire schema of one availability request.
type availabilityResponse struct {
	Stores []storeEntry `json:"stores"`
}

type storeEntry struct {
	StoreNumber       string   `json:"storeNumber"`
	PartsAvailability []string `json:"partsAvailability"`
	Error             string   `json:"error"`
}

// chunkResult carries one chunk's parsed records plus its failed stores.
type chunkResult struct {
	records []model.AvailabilityRecord
	failed  []string
	ferr    *model.FetchError // chunk-level failure, nil on success
}

// Fetch retrieves current availability of a product line at the given
// stores. Per-store failures degrade to zero records for that store; if
// every requested store fails the call returns an aggregate *model.FetchError.
func (c *Client) Fetch(ctx context.Context, country string, line model.ProductLine, storeNumbers []string) ([]model.AvailabilityRecord, error) {
	if len(storeNumbers) == 0 {
		return nil, nil
	}

	chunks := chunk(storeNumbers, maxStoresPerRequest)
	results := make([]chunkResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, stores := range chunks {
		i, stores := i, stores
		g.Go(func() error {
			results[i] = c.fetchChunk(gctx, country, line, stores)
			return nil
		})
	}
	_ = g.Wait() // workers report only through results

	var (
		records   []model.AvailabilityRecord
		failed    []string
		lastFatal *model.FetchError
	)
	for _, res := range results {
		records = append(records, res.records...)
		failed = append(failed, res.failed...)
		if res.ferr != nil {
			lastFatal = res.ferr
		}
	}

	if len(failed) == len(storeNumbers) {
		agg := aggregateError(lastFatal, failed)
		slog.Debug("availability fetch failed for all stores", "kind", agg.Kind, "stores", len(failed))
		return nil, agg
	}

	if len(failed) > 0 {
		slog.Warn("availability fetch degraded", "failedStores", strings.Join(failed, ","))
	}
	return dedupe(records), nil
}

// fetchChunk performs one availability request for up to
// maxStoresPerRequest stores.
func (c *Client) fetchChunk(ctx context.Context, country string, line model.ProductLine, stores []string) chunkResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return chunkResult{failed: stores, ferr: classify(err, stores)}
	}

	params := url.Values{}
	params.Set("country", country)
	params.Set("line", string(line))
	for _, s := range stores {
		params.Add("store", s)
	}
	reqURL := c.baseURL + "/availability?" + params.Encode()

	if c.debug {
		slog.Debug("availability request", "url", reqURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return chunkResult{failed: stores, ferr: model.NewFetchError(model.ErrSchemaMismatch, err, stores...)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stockwatch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chunkResult{failed: stores, ferr: classify(err, stores)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chunkResult{failed: stores, ferr: classify(err, stores)}
	}

	if c.debug {
		slog.Debug("availability response", "status", resp.StatusCode, "bytes", len(body))
	}

	if resp.StatusCode != http.StatusOK {
		return chunkResult{failed: stores, ferr: model.NewHTTPError(resp.StatusCode, stores...)}
	}

	var parsed availabilityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chunkResult{
			failed: stores,
			ferr:   model.NewFetchError(model.ErrSchemaMismatch, fmt.Errorf("decoding response: %w", err), stores...),
		}
	}

	byNumber := make(map[string]storeEntry, len(parsed.Stores))
	for _, entry := range parsed.Stores {
		byNumber[entry.StoreNumber] = entry
	}

	var out chunkResult
	for _, num := range stores {
		entry, ok := byNumber[num]
		if !ok || entry.Error != "" {
			// Missing or errored entry: zero records for this store.
			if ok {
				slog.Warn("store-level availability error", "store", num, "error", entry.Error)
			}
			out.failed = append(out.failed, num)
			continue
		}
		for _, part := range entry.PartsAvailability {
			out.records = append(out.records, model.AvailabilityRecord{StoreNumber: num, PartNumber: part})
		}
	}
	return out
}

// classify maps a transport error to a FetchError kind.
func classify(err error, stores []string) *model.FetchError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.NewFetchError(model.ErrTimeout, err, stores...)
	case errors.As(err, &netErr) && netErr.Timeout():
		return model.NewFetchError(model.ErrTimeout, err, stores...)
	default:
		return model.NewFetchError(model.ErrNetworkUnavailable, err, stores...)
	}
}

// aggregateError builds the all-stores-failed error. A chunk-level fatal
// error (HTTP status, timeout, transport) carries its kind; pure per-store
// schema failures escalate to SchemaMismatch.
func aggregateError(lastFatal *model.FetchError, failed []string) *model.FetchError {
	sort.Strings(failed)
	if lastFatal != nil {
		return &model.FetchError{
			Kind:   lastFatal.Kind,
			Status: lastFatal.Status,
			Stores: failed,
			Err:    lastFatal.Err,
		}
	}
	return &model.FetchError{Kind: model.ErrSchemaMismatch, Stores: failed}
}

// dedupe removes duplicate records; duplicates within one fetch carry no
// meaning, availability is a set.
func dedupe(records []model.AvailabilityRecord) []model.AvailabilityRecord {
	seen := make(map[model.AvailabilityRecord]bool, len(records))
	out := records[:0]
	for _, r := range records {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// chunk splits nums into batches of at most size elements.
func chunk(nums []string, size int) [][]string {
	var out [][]string
	for len(nums) > size {
		out = append(out, nums[:size])
		nums = nums[size:]
	}
	if len(nums) > 0 {
		out = append(out, nums)
	}
	return out
}
