// Package imghost uploads screenshot batches to the supported image hosts.
//
// The Client implements one upload protocol per host behind a shared
// Uploader interface. Host failures are signaled by a short or empty result
// rather than an error, so the rehost fallback loop can advance through its
// priority list; errors are reserved for malformed requests and local I/O.
package imghost
