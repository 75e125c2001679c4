//go:build linux

package slab

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

// HintHugePages is a best-effort, optional optimization (spec.md 9:
// "Huge-page backing... an optional optimization"). It advises the kernel
// that the backing storage behind data is a good candidate for
// transparent huge pages. Failure is silently ignored: this must never
// affect index stability or correctness, only (at best) TLB pressure.
func HintHugePages[T any](data []T) {
	if len(data) == 0 {
		return
	}

	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 {
		return
	}

	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&data))
	base := unsafe.Pointer(hdr.Data)
	length := len(data) * elemSize

	buf := unsafe.Slice((*byte)(base), length)
	_ = unix.Madvise(buf, unix.MADV_HUGEPAGE)
}
