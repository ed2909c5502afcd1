package openvr

import "structs"

// Layouts with the compiler's natural alignment, which OpenVR uses on
// windows. The blank fields put 64-bit and pointer members where the C
// compiler does, and [0]uint64 gives the structures the alignment of
// their widest member.

// VREvent_Data_t is the payload union of VREvent_t. Its size is that
// of the largest member; use [EventData] to read a member.
type VREvent_Data_t struct {
	_   structs.HostLayout
	_   [0]uint64
	Raw [6]uint32
}

// An event posted by the server to all running applications.
type VREvent_t struct {
	_ structs.HostLayout
	_ [0]uint64
	// EVREventType enum
	EventType          uint32
	TrackedDeviceIndex TrackedDeviceIndex_t
	EventAgeSeconds    float32
	_                  [4]byte
	Data               VREvent_Data_t
}

type VRControllerState001_t struct {
	_ structs.HostLayout
	_ [0]uint64
	// If packet num matches that on your prior call, then the controller
	// state hasn't been changed since your last call and there is no need
	// to process it.
	UnPacketNum uint32
	_           [4]byte
	// Bit flags for each of the buttons. Use ButtonMaskFromId to turn an
	// ID into a mask.
	UlButtonPressed PackedUint64
	UlButtonTouched PackedUint64
	// Axis data for the controller's analog inputs.
	RAxis [K_unControllerStateAxisCount]VRControllerAxis_t
}

type RenderModel_TextureMap_t struct {
	_        structs.HostLayout
	_        [0]uint64
	UnWidth  uint16
	UnHeight uint16
	_        [ptrSize - 4]byte
	// const uint8_t *
	RubTextureMapData PackedPtr
}

type RenderModel_t struct {
	_ structs.HostLayout
	_ [0]uint64
	// const struct vr::RenderModel_Vertex_t *
	RVertexData   PackedPtr
	UnVertexCount uint32
	_             [ptrSize - 4]byte
	// const uint16_t *
	RIndexData       PackedPtr
	UnTriangleCount  uint32
	DiffuseTextureId TextureID_t
}
