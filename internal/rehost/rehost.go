// Package rehost ensures every screenshot URL a run hands downstream
// belongs to a tracker-approved image host.
//
// Acceptance is tried cheapest-first: an existing image list whose hosts
// are all approved is taken as-is, then a fully approved reupload cache,
// and only then a fresh upload driven across the prioritized host fallback
// list. Hosts that fail or produce unapproved URLs are skipped for the rest
// of the session, and the loop is bounded by the number of configured
// hosts.
package rehost

import (
	"context"
	"fmt"
	"log/slog"

	"framegrab/internal/artifacts"
	"framegrab/internal/hosts"
	"framegrab/internal/imghost"
	"framegrab/internal/logging"
	"framegrab/internal/services"
)

// Outcome is the result of an approval cycle.
type Outcome struct {
	Records []artifacts.Record
	// Reuploaded is set when a fresh upload was required.
	Reuploaded bool
	// Host is the identifier that served the accepted set, when known.
	Host string
}

// Validator drives upload and approval across the host priority list.
// Session state (failed hosts, last successful index) persists across calls
// so repeated cycles within one run do not retry known-bad hosts.
type Validator struct {
	uploader imghost.Uploader
	approval *hosts.ApprovalSet
	priority []string
	cache    *artifacts.Cache
	logger   *slog.Logger

	failed    map[string]bool
	nextStart int
}

// NewValidator builds a validator over the uploader and the tracker's
// approval set. priority is the configured host fallback order.
func NewValidator(uploader imghost.Uploader, approval *hosts.ApprovalSet, priority []string, cache *artifacts.Cache, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{
		uploader: uploader,
		approval: approval,
		priority: priority,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "rehost"),
		failed:   make(map[string]bool),
	}
}

// CheckURLs reports whether every URL's normalized host is approved.
func (v *Validator) CheckURLs(urls []string) bool {
	if len(urls) == 0 {
		return false
	}
	for _, raw := range urls {
		if _, ok := v.approval.MatchURL(raw); !ok {
			v.logger.Info("existing image on unapproved host, reupload needed",
				logging.String("url", raw))
			return false
		}
	}
	return true
}

// EnsureApproved returns an approved record set for the screenshots.
// existingURLs is the image list already recorded against the unit of work;
// paths are the local files to upload when nothing reusable survives the
// checks. Exhausting every configured host returns ErrExhausted.
func (v *Validator) EnsureApproved(ctx context.Context, existingURLs, paths []string, releaseURL string) (Outcome, error) {
	if v.CheckURLs(existingURLs) {
		v.logger.Info("existing image list fully approved, no upload needed",
			logging.Int("count", len(existingURLs)))
		records := make([]artifacts.Record, 0, len(existingURLs))
		for _, raw := range existingURLs {
			records = append(records, artifacts.Record{RawURL: raw, ImgURL: raw, WebURL: raw})
		}
		return Outcome{Records: records}, nil
	}

	if cached := v.approvedCache(releaseURL); len(cached) > 0 {
		v.logger.Info("reusing approved cached uploads", logging.Int("count", len(cached)))
		return Outcome{Records: cached}, nil
	}

	return v.uploadLoop(ctx, paths, releaseURL)
}

func (v *Validator) approvedCache(releaseURL string) []artifacts.Record {
	if v.cache == nil {
		return nil
	}
	records, err := v.cache.Load()
	if err != nil {
		v.logger.Warn("reupload cache unreadable", logging.Error(err))
		return nil
	}
	records = artifacts.RecordsFor(records, releaseURL)
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if _, ok := v.approval.MatchURL(rec.RawURL); !ok {
			return nil
		}
	}
	return records
}

// uploadLoop tries each configured host in priority order, starting at the
// last successful index, until one produces a complete approved batch.
func (v *Validator) uploadLoop(ctx context.Context, paths []string, releaseURL string) (Outcome, error) {
	if len(paths) == 0 {
		return Outcome{}, services.Wrap(services.ErrExhausted, "rehost", "upload",
			"no local screenshots to upload", nil)
	}
	if len(v.priority) == 0 {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "rehost", "upload",
			"no upload hosts configured", nil)
	}

	for attempt := 0; attempt < len(v.priority); attempt++ {
		index := (v.nextStart + attempt) % len(v.priority)
		host := v.priority[index]
		if v.failed[host] {
			v.logger.Info("skipping host that already failed this session",
				logging.String(logging.FieldHost, host))
			continue
		}
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}

		v.logger.Info("uploading batch",
			logging.Int(logging.FieldAttempt, attempt+1),
			logging.String(logging.FieldHost, host),
			logging.Int("files", len(paths)))
		uploaded, err := v.uploader.Upload(ctx, host, paths)
		if err != nil {
			v.logger.Warn("upload errored, advancing to next host",
				logging.String(logging.FieldHost, host),
				logging.Error(err))
			v.failed[host] = true
			continue
		}
		if len(uploaded) < len(paths) {
			v.logger.Warn("upload incomplete, advancing to next host",
				logging.String(logging.FieldHost, host),
				logging.Int("uploaded", len(uploaded)),
				logging.Int("expected", len(paths)))
			v.failed[host] = true
			continue
		}
		if rejected, ok := v.verify(uploaded); !ok {
			v.logger.Warn("uploaded URL on unapproved host, advancing",
				logging.String(logging.FieldHost, host),
				logging.String("url", rejected))
			v.failed[host] = true
			continue
		}

		records := make([]artifacts.Record, 0, len(uploaded))
		for _, rec := range uploaded {
			records = append(records, artifacts.Record{
				RawURL:     rec.RawURL,
				ImgURL:     rec.ImgURL,
				WebURL:     rec.WebURL,
				ReleaseURL: releaseURL,
			})
		}
		if v.cache != nil {
			if _, err := v.cache.Merge(records); err != nil {
				v.logger.Warn("cache merge failed", logging.Error(err))
			}
		}
		v.nextStart = index
		return Outcome{Records: records, Reuploaded: true, Host: host}, nil
	}

	return Outcome{}, services.Wrap(services.ErrExhausted, "rehost", "upload",
		fmt.Sprintf("all %d configured hosts failed or were skipped", len(v.priority)), nil)
}

func (v *Validator) verify(records []imghost.Record) (string, bool) {
	for _, rec := range records {
		if _, ok := v.approval.MatchURL(rec.RawURL); !ok {
			return rec.RawURL, false
		}
	}
	return "", true
}
