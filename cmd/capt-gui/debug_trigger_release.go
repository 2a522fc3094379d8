//go:build !debug

package main

// debugStateForPath is a no-op outside debug builds.
func debugStateForPath(string) (AppState, bool) {
	return StateIdle, false
}
