package openvr

import (
	"fmt"
	"unsafe"
)

// Vertices returns the model's vertex buffer.
func (m *RenderModel_t) Vertices() []RenderModel_Vertex_t {
	if m.RVertexData.IsNil() || m.UnVertexCount == 0 {
		return nil
	}
	return unsafe.Slice((*RenderModel_Vertex_t)(m.RVertexData.Get()), m.UnVertexCount)
}

// Indices returns the model's index buffer, three indices per
// triangle.
func (m *RenderModel_t) Indices() []uint16 {
	if m.RIndexData.IsNil() || m.UnTriangleCount == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(m.RIndexData.Get()), 3*int(m.UnTriangleCount))
}

// Texels returns the texture as RGBA8 rows, UnWidth*4 bytes each.
func (t *RenderModel_TextureMap_t) Texels() []byte {
	n := 4 * int(t.UnWidth) * int(t.UnHeight)
	if t.RubTextureMapData.IsNil() || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(t.RubTextureMapData.Get()), n)
}

// EventData reads the payload of e as T, one of the VREvent_*_t
// payload structures; which one is valid depends on e.EventType. The
// payload is copied because its offset in VREvent_t does not satisfy
// the alignment of every payload type.
func EventData[T any](e *VREvent_t) T {
	var v T
	copy(payloadBytes(&v), unsafe.Slice((*byte)(unsafe.Pointer(&e.Data)), unsafe.Sizeof(v)))
	return v
}

// PutEventData stores v as the payload of e.
func PutEventData[T any](e *VREvent_t, v T) {
	e.Data = VREvent_Data_t{}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&e.Data)), unsafe.Sizeof(v)), payloadBytes(&v))
}

func payloadBytes[T any](v *T) []byte {
	n := unsafe.Sizeof(*v)
	if n > unsafe.Sizeof(VREvent_Data_t{}) {
		panic(fmt.Sprintf("openvr: %T (%v bytes) does not fit an event payload", *v, n))
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), n)
}

// ButtonMaskFromId turns a button id (EVRButtonId) into its bit in the
// button masks of VRControllerState_t.
func ButtonMaskFromId[T ~int32 | ~uint32](id T) uint64 {
	return 1 << uint64(id)
}

// Pressed reports whether any button in mask is pressed.
func (s *VRControllerState001_t) Pressed(mask uint64) bool {
	return s.UlButtonPressed.Get()&mask != 0
}

// Touched reports whether any button in mask is touched.
func (s *VRControllerState001_t) Touched(mask uint64) bool {
	return s.UlButtonTouched.Get()&mask != 0
}

// Changed reports whether s is a newer packet than prev.
func (s *VRControllerState001_t) Changed(prev *VRControllerState001_t) bool {
	return prev == nil || s.UnPacketNum != prev.UnPacketNum
}
