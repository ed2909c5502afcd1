//go:build !windows

package openvr

import "structs"

// Layouts under #pragma pack(4), which OpenVR uses on linux and darwin.

// VREvent_Data_t is the payload union of VREvent_t. Its size is that
// of the largest member; use [EventData] to read a member.
type VREvent_Data_t struct {
	_   structs.HostLayout
	Raw [6]uint32
}

// An event posted by the server to all running applications.
type VREvent_t struct {
	_ structs.HostLayout
	// EVREventType enum
	EventType          uint32
	TrackedDeviceIndex TrackedDeviceIndex_t
	EventAgeSeconds    float32
	Data               VREvent_Data_t
}

type VRControllerState001_t struct {
	_ structs.HostLayout
	// If packet num matches that on your prior call, then the controller
	// state hasn't been changed since your last call and there is no need
	// to process it.
	UnPacketNum uint32
	// Bit flags for each of the buttons. Use ButtonMaskFromId to turn an
	// ID into a mask.
	UlButtonPressed PackedUint64
	UlButtonTouched PackedUint64
	// Axis data for the controller's analog inputs.
	RAxis [K_unControllerStateAxisCount]VRControllerAxis_t
}

type RenderModel_TextureMap_t struct {
	_        structs.HostLayout
	UnWidth  uint16
	UnHeight uint16
	// const uint8_t *
	RubTextureMapData PackedPtr
}

type RenderModel_t struct {
	_ structs.HostLayout
	// const struct vr::RenderModel_Vertex_t *
	RVertexData   PackedPtr
	UnVertexCount uint32
	// const uint16_t *
	RIndexData       PackedPtr
	UnTriangleCount  uint32
	DiffuseTextureId TextureID_t
}
