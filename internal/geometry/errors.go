package geometry

import "fmt"

// InputError indicates malformed pipeline input: non-positive image
// dimensions or wall coordinates that are not finite numbers. It is fatal
// and reported before any rasterization happens.
//
// Out-of-bounds wall coordinates are NOT input errors; they are silently
// clamped to the grid.
type InputError struct {
	// Reason describes what was wrong with the input.
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ConfigError indicates an invalid configuration value: an even or
// non-positive kernel size, a non-positive epsilon factor, or a threshold
// outside [0, 1]. It is fatal and reported at construction time, before any
// processing happens.
type ConfigError struct {
	// Option is the name of the offending configuration option.
	Option string

	// Reason describes why the value was rejected.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Option, e.Reason)
}
