package artifacts

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"framegrab/internal/hosts"
	"framegrab/internal/logging"
)

// ScanResult is what a prior-run scan found.
type ScanResult struct {
	// ShortCircuit is set when enough images are already hosted that the
	// whole capture pipeline can be skipped.
	ShortCircuit bool
	// Paths are reusable local screenshots, deduplicated and sorted.
	Paths []string
	// CachedRecords are reupload-cache entries usable as-is. Populated only
	// when every cached entry maps to an approved host; a single
	// unapproved entry forces regeneration.
	CachedRecords []Record
}

// Scanner detects reusable artifacts from prior runs.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner builds a scanner. A nil logger is replaced with a no-op.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{logger: logging.NewComponentLogger(logger, "scanner")}
}

// Scan inspects the work directory and the reupload cache for reusable
// output. knownURLs is the image list already recorded against this unit of
// work; only entries hosted on an approved host count toward the cutoff, so
// a list that would fail approval downstream cannot skip capture.
func (s *Scanner) Scan(workDir, baseName string, cutoff int, knownURLs []string, approval *hosts.ApprovalSet, cache *Cache, releaseURL string) (ScanResult, error) {
	hosted := 0
	for _, raw := range knownURLs {
		if !isHosted(raw) {
			continue
		}
		if _, ok := approval.MatchURL(raw); ok {
			hosted++
		}
	}
	if cutoff > 0 && hosted >= cutoff {
		s.logger.Info("existing hosted images meet cutoff, skipping capture",
			logging.Int("hosted", hosted),
			logging.Int("cutoff", cutoff))
		return ScanResult{ShortCircuit: true}, nil
	}

	paths, err := s.scanLocal(workDir, baseName, knownURLs)
	if err != nil {
		return ScanResult{}, err
	}

	cached := s.reusableCache(cache, releaseURL, approval)
	return ScanResult{Paths: paths, CachedRecords: cached}, nil
}

// scanLocal merges directory entries matching the naming convention with
// entries whose basename matches a previously recorded URL.
func (s *Scanner) scanLocal(workDir, baseName string, knownURLs []string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, baseName+"-*.png"))
	if err != nil {
		return nil, fmt.Errorf("scan work directory: %w", err)
	}

	urlBases := make(map[string]struct{}, len(knownURLs))
	for _, raw := range knownURLs {
		if base := urlBasename(raw); base != "" {
			urlBases[base] = struct{}{}
		}
	}
	if len(urlBases) > 0 {
		entries, err := os.ReadDir(workDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("scan work directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := urlBases[entry.Name()]; ok {
				matches = append(matches, filepath.Join(workDir, entry.Name()))
			}
		}
	}

	seen := make(map[string]struct{}, len(matches))
	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		paths = append(paths, match)
	}
	sort.Strings(paths)
	if len(paths) > 0 {
		s.logger.Info("found reusable screenshots", logging.Int("count", len(paths)))
	}
	return paths, nil
}

// reusableCache returns the cached records when every one maps to an
// approved host. Any unapproved entry invalidates the whole set.
func (s *Scanner) reusableCache(cache *Cache, releaseURL string, approval *hosts.ApprovalSet) []Record {
	if cache == nil {
		return nil
	}
	records, err := cache.Load()
	if err != nil {
		s.logger.Warn("reupload cache unreadable, ignoring", logging.Error(err))
		return nil
	}
	records = RecordsFor(records, releaseURL)
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if _, ok := approval.MatchURL(rec.RawURL); !ok {
			s.logger.Info("cached record on unapproved host, forcing regeneration",
				logging.String("url", rec.RawURL))
			return nil
		}
	}
	return records
}

func isHosted(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

func urlBasename(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Path == "" {
		return ""
	}
	base := filepath.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
