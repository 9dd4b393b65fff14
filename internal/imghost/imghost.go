package imghost

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"framegrab/internal/config"
	"framegrab/internal/logging"
)

// Record is one hosted image, as returned by an upload.
type Record struct {
	RawURL string
	ImgURL string
	WebURL string
}

// Uploader sends a batch of local images to one host.
type Uploader interface {
	Upload(ctx context.Context, host string, paths []string) ([]Record, error)
}

// HTTPDoer describes the HTTP client used for uploads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client uploads to the supported hosts. Per-file uploads within a batch
// run concurrently, bounded by the configured parallelism.
type Client struct {
	cfg    config.Upload
	http   HTTPDoer
	logger *slog.Logger
}

// NewClient builds an upload client. A nil doer uses http.DefaultClient.
func NewClient(cfg config.Upload, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   doer,
		logger: logging.NewComponentLogger(logger, "imghost"),
	}
}

// Upload dispatches the batch to the named host. Unknown hosts yield an
// empty result. A short result means some files were rejected; the caller
// decides whether that counts as failure.
func (c *Client) Upload(ctx context.Context, host string, paths []string) ([]Record, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if len(paths) == 0 {
		return nil, nil
	}
	switch host {
	case "ptpimg":
		return c.uploadPTPImg(ctx, paths)
	case "pixhost":
		return c.uploadEach(ctx, paths, c.uploadPixhostOne)
	case "imgbb":
		return c.uploadEach(ctx, paths, c.uploadImgBBOne)
	default:
		c.logger.Warn("no upload protocol for host", logging.String(logging.FieldHost, host))
		return nil, nil
	}
}

// uploadEach runs a per-file upload function concurrently, preserving input
// order and dropping failed slots from the result.
func (c *Client) uploadEach(ctx context.Context, paths []string, one func(ctx context.Context, path string) (Record, error)) ([]Record, error) {
	slots := make([]*Record, len(paths))
	group, ctx := errgroup.WithContext(ctx)
	limit := c.cfg.Parallel
	if limit <= 0 {
		limit = 1
	}
	group.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			record, err := one(ctx, path)
			if err != nil {
				c.logger.Warn("upload failed",
					logging.String(logging.FieldPath, path),
					logging.Error(err))
				return nil
			}
			slots[i] = &record
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(paths))
	for _, slot := range slots {
		if slot != nil {
			records = append(records, *slot)
		}
	}
	return records, nil
}
