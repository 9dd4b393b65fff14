package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"framegrab/internal/fileutil"
	"framegrab/internal/logging"
)

const (
	// CacheFileName stores screenshot records for a unit of work.
	CacheFileName = "reuploaded_images.json"
	// CoverCacheFileName stores cover-art records, keyed by release URL.
	CoverCacheFileName = "covers.json"
)

// Record is one hosted image. ReleaseURL is set only for cover-art
// entries, scoping them to the release they belong to.
type Record struct {
	RawURL     string `json:"raw_url"`
	ImgURL     string `json:"img_url"`
	WebURL     string `json:"web_url"`
	ReleaseURL string `json:"release_url,omitempty"`
}

func (r Record) key() string {
	return strings.Join([]string{r.RawURL, r.ImgURL, r.WebURL, r.ReleaseURL}, "|")
}

// Cache is the persisted reupload cache for one work directory. One writer
// per unit of work is assumed; the file lock enforces it across processes.
type Cache struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewCache opens the screenshot cache for a work directory.
func NewCache(workDir string, logger *slog.Logger) *Cache {
	return newCache(filepath.Join(workDir, CacheFileName), logger)
}

// NewCoverCache opens the cover-art cache for a work directory.
func NewCoverCache(workDir string, logger *slog.Logger) *Cache {
	return newCache(filepath.Join(workDir, CoverCacheFileName), logger)
}

func newCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "cache"),
	}
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Load reads the cached records. A missing file is an empty cache.
func (c *Cache) Load() ([]Record, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse cache %q: %w", c.path, err)
	}
	return Dedupe(records), nil
}

// RecordsFor filters loaded records by release URL. An empty release URL
// returns everything.
func RecordsFor(records []Record, releaseURL string) []Record {
	releaseURL = strings.TrimSpace(releaseURL)
	if releaseURL == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.ReleaseURL == releaseURL {
			out = append(out, rec)
		}
	}
	return out
}

// Merge folds new records into the cache on disk and returns the combined
// deduplicated set. Existing entries are never dropped.
func (c *Cache) Merge(records []Record) ([]Record, error) {
	if err := c.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock cache: %w", err)
	}
	defer func() {
		_ = c.lock.Unlock()
	}()

	existing, err := c.Load()
	if err != nil {
		return nil, err
	}
	merged := Dedupe(append(existing, records...))

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(c.path, data); err != nil {
		return nil, err
	}
	c.logger.Info("cache merged",
		logging.String(logging.FieldPath, c.path),
		logging.Int("records", len(merged)),
		logging.Int("added", len(merged)-len(existing)))
	return merged, nil
}

// Clear removes the cache file.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Dedupe removes duplicate records, keeping first occurrence order.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.RawURL == "" && rec.ImgURL == "" && rec.WebURL == "" {
			continue
		}
		key := rec.key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
