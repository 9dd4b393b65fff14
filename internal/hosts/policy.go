package hosts

import (
	"fmt"
	"sort"
	"strings"

	"framegrab/internal/services"
)

// RetakeFloorBytes is the universal lower bound. Any capture at or below
// this size is retaken regardless of host, since such files are almost
// always black or blank frames.
const RetakeFloorBytes = 75_000

// DVDInitialFloorBytes is the stricter floor applied to first-pass DVD
// captures, whose low resolution otherwise produces tiny legitimate files.
const DVDInitialFloorBytes = 120_000

// Policy is a host's byte-size acceptance band. MaxBytes == 0 means the
// host imposes no upper bound.
type Policy struct {
	MinBytes int64
	MaxBytes int64
}

// Accepts reports whether the size falls inside the policy band.
func (p Policy) Accepts(size int64) bool {
	if size <= p.MinBytes {
		return false
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return false
	}
	return true
}

// policies maps host identifiers to their acceptance bands. Hosts listed
// with only the universal floor accept anything above it.
var policies = map[string]Policy{
	"imgbb":        {MinBytes: RetakeFloorBytes, MaxBytes: 31_000_000},
	"imgbox":       {MinBytes: RetakeFloorBytes, MaxBytes: 10_000_000},
	"pixhost":      {MinBytes: RetakeFloorBytes, MaxBytes: 10_000_000},
	"ptpimg":       {MinBytes: RetakeFloorBytes},
	"lensdump":     {MinBytes: RetakeFloorBytes},
	"ptscreens":    {MinBytes: RetakeFloorBytes},
	"onlyimage":    {MinBytes: RetakeFloorBytes},
	"dalexni":      {MinBytes: RetakeFloorBytes},
	"zipline":      {MinBytes: RetakeFloorBytes},
	"passtheimage": {MinBytes: RetakeFloorBytes},
	"seedpool_cdn": {MinBytes: RetakeFloorBytes},
	"sharex":       {MinBytes: RetakeFloorBytes},
	"utppm":        {MinBytes: RetakeFloorBytes},
}

// PolicyFor returns the size policy for a host identifier.
func PolicyFor(host string) (Policy, bool) {
	policy, ok := policies[strings.ToLower(strings.TrimSpace(host))]
	return policy, ok
}

// Hosts returns every host identifier with a registered policy, sorted.
func Hosts() []string {
	out := make([]string, 0, len(policies))
	for host := range policies {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

// Known reports whether the host identifier has a registered policy.
func Known(host string) bool {
	_, ok := PolicyFor(host)
	return ok
}

// ValidateSize checks a capture's byte size against the host policy.
// Unrecognized hosts always fail.
func ValidateSize(host string, size int64) error {
	policy, ok := PolicyFor(host)
	if !ok {
		return services.Wrap(services.ErrSizeValidation, "hosts", "validate",
			fmt.Sprintf("unrecognized host %q", host), nil)
	}
	if size <= policy.MinBytes {
		return services.Wrap(services.ErrSizeValidation, "hosts", "validate",
			fmt.Sprintf("%d bytes at or below host %s minimum %d", size, host, policy.MinBytes), nil)
	}
	if policy.MaxBytes > 0 && size > policy.MaxBytes {
		return services.Wrap(services.ErrSizeValidation, "hosts", "validate",
			fmt.Sprintf("%d bytes above host %s maximum %d", size, host, policy.MaxBytes), nil)
	}
	return nil
}
