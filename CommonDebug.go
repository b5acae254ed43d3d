//go:build kbox2d_debug

package kbox2d

// debugBuild turns pool imbalance into a panic.
const debugBuild = true
