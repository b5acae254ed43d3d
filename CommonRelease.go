//go:build !kbox2d_debug

package kbox2d

const debugBuild = false
