// Package hosts describes the supported image hosts: their byte-size
// acceptance policy and the per-tracker approval sets captured URLs are
// checked against.
package hosts
