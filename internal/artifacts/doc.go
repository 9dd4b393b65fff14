// Package artifacts detects reusable screenshots from prior runs and
// persists the reupload cache that makes repeated hosting cycles
// idempotent.
//
// The cache file is written under an advisory file lock with
// write-temp-then-rename semantics, so a crashed or concurrent retry can
// never leave a truncated cache behind.
package artifacts
