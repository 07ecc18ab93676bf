package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/util"
)

// DefaultFetchTimeout bounds a single fetch when the item sets no timeout
const DefaultFetchTimeout = 10 * time.Second

// FetchArgs configures one download
type FetchArgs struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout,omitempty"`
}

// FetchResult describes a completed download
type FetchResult struct {
	URL        string `json:"url"`
	Status     int    `json:"status"`
	Size       int64  `json:"size"`
	DurationMs int64  `json:"duration_ms"`
}

// Fetcher downloads URLs. Any HTTP response counts as success; only transport
// errors and timeouts fail the item.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher using client, or http.DefaultClient if nil
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch is a RegistryFunc that GETs args.url and drains the body
func (f *Fetcher) Fetch(ctx context.Context, raw json.RawMessage) (any, error) {
	var args FetchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.URL == "" {
		return nil, util.NewValidationError("url", nil, "must not be empty")
	}

	timeout := DefaultFetchTimeout
	if args.Timeout != "" {
		d, err := time.ParseDuration(args.Timeout)
		if err != nil || d <= 0 {
			return nil, util.NewValidationError("timeout", args.Timeout, "must be a positive Go duration")
		}
		timeout = d
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: fetch %s after %s", util.ErrTimeout, args.URL, timeout)
		}
		return nil, fmt.Errorf("fetch %s: %w", args.URL, err)
	}
	defer resp.Body.Close()

	size, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", args.URL, err)
	}

	return FetchResult{
		URL:        args.URL,
		Status:     resp.StatusCode,
		Size:       size,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// FetchItems builds one fetch item per URL, identified by its position
func FetchItems(r *executor.Registry, urls []string, timeout time.Duration) ([]executor.WorkItem, error) {
	items := make([]executor.WorkItem, 0, len(urls))
	for i, u := range urls {
		args := FetchArgs{URL: u}
		if timeout > 0 {
			args.Timeout = timeout.String()
		}
		item, err := r.Item(fmt.Sprintf("fetch-%d", i), KindFetch, args)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
