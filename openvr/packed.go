package openvr

import "unsafe"

// Pointer size of the target.
const ptrSize = unsafe.Sizeof(uintptr(0))

// PackedUint64 is a uint64 member at a 4-byte aligned offset, stored
// as two 32-bit words in native byte order.
type PackedUint64 [2]uint32

func (p PackedUint64) Get() uint64 {
	var v uint64
	*(*PackedUint64)(unsafe.Pointer(&v)) = p
	return v
}

func (p *PackedUint64) Set(v uint64) {
	*p = *(*PackedUint64)(unsafe.Pointer(&v))
}

// PackedPtr is a C pointer member at a 4-byte aligned offset, stored
// as pointer-sized run of 32-bit words. The garbage collector does not
// see it; it must only refer to C memory, or to Go memory kept alive
// by other means.
type PackedPtr [ptrSize / 4]uint32

func (p PackedPtr) Get() unsafe.Pointer {
	var v unsafe.Pointer
	*(*PackedPtr)(unsafe.Pointer(&v)) = p
	return v
}

func (p *PackedPtr) Set(v unsafe.Pointer) {
	*p = *(*PackedPtr)(unsafe.Pointer(&v))
}

func (p PackedPtr) IsNil() bool {
	return p == PackedPtr{}
}
