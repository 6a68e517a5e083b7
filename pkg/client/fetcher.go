package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
)

// ErrFetchFailed marks a failed pull of shared-item data. There is no
// automatic retry: the share notice was best-effort and the caller decides
// whether the item matters enough to re-request.
var ErrFetchFailed = errors.New("shared item fetch failed")

const maxFetchBody = 4 << 20 // 4 MiB, well above any reasonable item

// Fetcher performs phase two of the share protocol: the synchronous pull
// against the origin instance's public read endpoint. The payload reflects
// the origin's state when fetched, not when shared.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "share_fetcher")),
	}
}

// Fetch retrieves the current full representation of a shared item from
// its origin. The share token, when present, rides along as a bearer
// token; the origin decides whether it requires one.
func (f *Fetcher) Fetch(ctx context.Context, ref protocol.ShareReference) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.OriginFetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if ref.ShareToken != "" {
		req.Header.Set("Authorization", "Bearer "+ref.ShareToken)
	}

	f.logger.Info("fetching shared item",
		slog.String("itemID", ref.ItemID),
		slog.String("url", ref.OriginFetchURL),
	)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: origin returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: origin returned invalid JSON", ErrFetchFailed)
	}
	return body, nil
}
