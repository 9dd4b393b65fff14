// Package logging constructs the shared slog logger and provides attribute
// helpers used across the pipeline. Output is either a JSON handler for
// machine consumption or a compact console handler for interactive runs.
package logging
