//go:build !linux

package slab

// HintHugePages is a no-op on platforms without MADV_HUGEPAGE support.
func HintHugePages[T any](data []T) {}
