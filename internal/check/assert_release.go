//go:build !debug

package check

// Assert compiles away outside debug builds.
func Assert(_ bool, _ string) {}

// Assertf compiles away outside debug builds.
func Assertf(_ bool, _ string, _ ...any) {}
