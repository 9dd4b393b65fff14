package hosts

import (
	"net/url"
	"strings"
)

// DefaultHostnameMapping maps the serving domains of known hosts to their
// identifiers. Bare domains suffice: serving subdomains like
// img57.pixhost.to match their base domain. Trackers may extend or
// override it per approval set.
var DefaultHostnameMapping = map[string]string{
	"ptpimg.me":     "ptpimg",
	"ibb.co":        "imgbb",
	"imgbox.com":    "imgbox",
	"pixhost.to":    "pixhost",
	"lensdump.com":  "lensdump",
	"ptscreens.com": "ptscreens",
	"onlyimage.com": "onlyimage",
	"dalexni.com":   "dalexni",
}

// ApprovalSet is one tracker's approved host identifiers plus a
// hostname-to-identifier normalization table for hosts that serve images
// from domains that differ from their identifier.
type ApprovalSet struct {
	approved map[string]struct{}
	mapping  map[string]string
}

// NewApprovalSet builds an approval set from approved identifiers and a
// hostname mapping. Identifiers are lowercased and trimmed. A nil mapping
// selects DefaultHostnameMapping; pass an empty map to disable mapping.
func NewApprovalSet(approved []string, mapping map[string]string) *ApprovalSet {
	if mapping == nil {
		mapping = DefaultHostnameMapping
	}
	set := &ApprovalSet{
		approved: make(map[string]struct{}, len(approved)),
		mapping:  make(map[string]string, len(mapping)),
	}
	for _, host := range approved {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			set.approved[host] = struct{}{}
		}
	}
	for from, to := range mapping {
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.ToLower(strings.TrimSpace(to))
		if from != "" && to != "" {
			set.mapping[from] = to
		}
	}
	return set
}

// Approved reports whether a host identifier is in the set. Nil receivers
// approve nothing.
func (s *ApprovalSet) Approved(host string) bool {
	if s == nil {
		return false
	}
	_, ok := s.approved[strings.ToLower(strings.TrimSpace(host))]
	return ok
}

// Identifiers returns the approved identifiers in unspecified order.
func (s *ApprovalSet) Identifiers() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.approved))
	for host := range s.approved {
		out = append(out, host)
	}
	return out
}

// MatchHost resolves a URL hostname to an approved host identifier. The
// hostname is normalized through the mapping table first: it matches a
// mapping key when it equals the key or ends with "." + key, which covers
// serving subdomains like img57.pixhost.to and i.ibb.co. The mapped
// identifier must then be in the approved set.
func (s *ApprovalSet) MatchHost(hostname string) (string, bool) {
	if s == nil {
		return "", false
	}
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return "", false
	}
	id := hostname
	if mapped, ok := s.mapping[hostname]; ok {
		id = mapped
	} else {
		for key, mapped := range s.mapping {
			if strings.HasSuffix(hostname, "."+key) {
				id = mapped
				break
			}
		}
	}
	if _, ok := s.approved[id]; ok {
		return id, true
	}
	return "", false
}

// MatchURL parses a raw URL and resolves its hostname against the set.
func (s *ApprovalSet) MatchURL(rawURL string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return "", false
	}
	return s.MatchHost(parsed.Hostname())
}
