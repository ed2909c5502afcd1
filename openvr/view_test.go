package openvr

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestPackedUint64(t *testing.T) {
	var p PackedUint64
	require.Zero(t, p.Get())
	for _, v := range []uint64{1, 1 << 32, 0xdeadbeef_cafef00d, ^uint64(0)} {
		p.Set(v)
		require.Equal(t, v, p.Get())
	}
}

func TestPackedPtr(t *testing.T) {
	var p PackedPtr
	require.True(t, p.IsNil())
	require.Nil(t, p.Get())

	buf := make([]byte, 16)
	p.Set(unsafe.Pointer(&buf[3]))
	require.False(t, p.IsNil())
	require.Equal(t, unsafe.Pointer(&buf[3]), p.Get())
	runtime.KeepAlive(buf)

	p.Set(nil)
	require.True(t, p.IsNil())
}

func TestRenderModelViews(t *testing.T) {
	require := require.New(t)

	var m RenderModel_t
	require.Nil(m.Vertices())
	require.Nil(m.Indices())

	verts := make([]RenderModel_Vertex_t, 4)
	for i := range verts {
		verts[i].VPosition.V = [3]float32{float32(i), 0, 1}
		verts[i].RfTextureCoord = [2]float32{0.5, float32(i) / 4}
	}
	indices := []uint16{0, 1, 2, 2, 3, 0}

	m.RVertexData.Set(unsafe.Pointer(&verts[0]))
	m.UnVertexCount = uint32(len(verts))
	m.RIndexData.Set(unsafe.Pointer(&indices[0]))
	m.UnTriangleCount = 2
	m.DiffuseTextureId = 7

	require.Equal(verts, m.Vertices())
	require.Equal(indices, m.Indices())

	// Views alias the buffers.
	m.Vertices()[1].VNormal.V[2] = 1
	require.Equal(float32(1), verts[1].VNormal.V[2])

	runtime.KeepAlive(verts)
	runtime.KeepAlive(indices)
}

func TestTexels(t *testing.T) {
	require := require.New(t)

	var tm RenderModel_TextureMap_t
	require.Nil(tm.Texels())

	data := make([]byte, 2*3*4)
	for i := range data {
		data[i] = byte(i)
	}
	tm.UnWidth, tm.UnHeight = 2, 3
	tm.RubTextureMapData.Set(unsafe.Pointer(&data[0]))
	require.Equal(data, tm.Texels())

	tm.UnHeight = 0
	require.Nil(tm.Texels())
	runtime.KeepAlive(data)
}

type testMouse struct {
	X, Y   float32
	Button uint32
}

type testReserved struct {
	Reserved0, Reserved1, Reserved2 uint64
}

func TestEventData(t *testing.T) {
	require := require.New(t)

	ev := VREvent_t{EventType: 300, TrackedDeviceIndex: 1}
	PutEventData(&ev, testMouse{X: 0.25, Y: 0.75, Button: 1})
	require.Equal(testMouse{X: 0.25, Y: 0.75, Button: 1}, EventData[testMouse](&ev))
	require.Equal(uint32(300), ev.EventType)

	// Payloads with 64-bit members are read regardless of the offset
	// of the union inside the event.
	PutEventData(&ev, testReserved{1, 2, 3})
	require.Equal(testReserved{1, 2, 3}, EventData[testReserved](&ev))

	// A smaller payload clears the rest of the union.
	PutEventData(&ev, uint32(9))
	require.Equal(uint32(9), EventData[uint32](&ev))
	r := EventData[testReserved](&ev)
	require.Zero(r.Reserved1)
	require.Zero(r.Reserved2)

	require.Panics(func() { EventData[[32]byte](&ev) })
}

func TestControllerButtons(t *testing.T) {
	require := require.New(t)

	type buttonID uint32
	const (
		grip    buttonID = 2
		trigger buttonID = 33
	)
	require.Equal(uint64(1<<33), ButtonMaskFromId(trigger))
	require.Equal(uint64(1<<2), ButtonMaskFromId(int32(grip)))

	var s VRControllerState_t
	s.UnPacketNum = 5
	s.UlButtonPressed.Set(ButtonMaskFromId(trigger))
	s.UlButtonTouched.Set(ButtonMaskFromId(trigger) | ButtonMaskFromId(grip))

	require.True(s.Pressed(ButtonMaskFromId(trigger)))
	require.False(s.Pressed(ButtonMaskFromId(grip)))
	require.True(s.Touched(ButtonMaskFromId(grip)))
	require.True(s.Pressed(ButtonMaskFromId(grip) | ButtonMaskFromId(trigger)))

	prev := s
	require.False(s.Changed(&prev))
	s.UnPacketNum++
	require.True(s.Changed(&prev))
	require.True(s.Changed(nil))
}
