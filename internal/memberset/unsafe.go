package memberset

import (
	"reflect"
	"unsafe"
)

// bytesToUint32 reinterprets a []byte as a []uint32 without copying, the
// same technique as encoding/bam's UnsafeBytesToDoublets. It assumes the
// host is little-endian, matching the on-disk format (spec §6.1); x86-64
// and arm64, the only architectures this system runs on, both are.
func bytesToUint32(src []byte) (dst []uint32) {
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&src))
	dh := (*reflect.SliceHeader)(unsafe.Pointer(&dst))
	dh.Data = sh.Data
	dh.Len = sh.Len / 4
	dh.Cap = sh.Cap / 4
	return dst
}
