package openvr

import "structs"

// Declarations below are shared by the hand-written structures in
// overrides_*.go and excluded from generation by the "override
// companion" rule.

// K_unControllerStateAxisCount is the number of analog axes reported
// in VRControllerState_t.
const K_unControllerStateAxisCount = 5

type TrackedDeviceIndex_t uint32

type TextureID_t int32

type HmdVector3_t struct {
	_ structs.HostLayout
	V [3]float32
}

type VRControllerAxis_t struct {
	_ structs.HostLayout
	// Ranges from -1.0 to 1.0 for joysticks and track pads. Ranges from
	// 0.0 to 1.0 for triggers were 0 is fully released.
	X float32
	// Ranges from -1.0 to 1.0 for joysticks and track pads. Is always 0.0
	// for triggers.
	Y float32
}

type RenderModel_Vertex_t struct {
	_              structs.HostLayout
	VPosition      HmdVector3_t
	VNormal        HmdVector3_t
	RfTextureCoord [2]float32
}

type VRControllerState_t = VRControllerState001_t
