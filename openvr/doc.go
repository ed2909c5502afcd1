// Package openvr is a Go binding of the OpenVR C API.
//
// Most of the package is generated by openvr-bindgen from the vendored
// headers: ztypes_<goos>_<goarch>.go holds the types, enums and
// constants of one target, zfuncs.go the entry points and
// zlink_<goos>_<goarch>.go the cgo flags that link the native library.
// Names follow the C API. Enumerators lose their "EnumName_" prefix, so
// EVREye_Eye_Left is Eye_Left, and lower-case names get an upper-case
// first letter.
//
// A few structures are written by hand in overrides*.go because cgo
// cannot reproduce OpenVR's 4-byte packing on linux and darwin. Their
// 64-bit and pointer members that may sit at 4-byte offsets have the
// types [PackedUint64] and [PackedPtr]. Slices returned by [RenderModel_t.Vertices],
// [RenderModel_t.Indices] and [RenderModel_TextureMap_t.Texels] alias
// memory owned by the runtime and are only valid until the model or
// texture is freed.
package openvr
