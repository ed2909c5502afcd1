package cheader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ovrgo/openvr/nativelib"
	"github.com/stretchr/testify/require"
)

func parseTestdata(t *testing.T, goos, goarch string) *Header {
	t.Helper()
	tgt, err := nativelib.ParseTarget(goos, goarch)
	require.NoError(t, err)
	h, err := ParseFile(filepath.Join("testdata", "wrapper.h"), &Options{
		IncludeDirs: []string{filepath.Join("testdata", "include")},
		Defines:     Predefined(tgt),
		ExportMacro: "S_API",
	})
	require.NoError(t, err)
	return h
}

func names(h *Header, kind Kind) []string {
	var res []string
	for _, d := range h.Decls {
		if d.Kind == kind {
			res = append(res, d.Name)
		}
	}
	return res
}

func TestParseFile(t *testing.T) {
	require := require.New(t)
	h := parseTestdata(t, "linux", "amd64")

	require.Equal([]string{
		filepath.Join("testdata", "wrapper.h"),
		filepath.Join("testdata", "include", "openvr_capi.h"),
		filepath.Join("testdata", "include", "openvr_types.h"),
	}, h.Files)

	require.Equal([]string{
		"EVRApplicationType", "EVREye", "ETrackingUniverseOrigin", "EVRButtonId", "EVRInitError",
	}, names(h, KindEnum))
	require.Equal([]string{
		"HmdMatrix34_t", "HmdVector3_t", "VRControllerAxis_t", "VRControllerState001_t",
		"VREvent_Reserved_t", "VREvent_Controller_t", "VREvent_Mouse_t", "VREvent_t",
		"RenderModel_Vertex_t", "RenderModel_TextureMap_t", "RenderModel_t",
		"Compositor_CumulativeStats", "VR_IVRSystem_FnTable",
	}, names(h, KindStruct))
	require.Equal([]string{"VREvent_Data_t"}, names(h, KindUnion))
	require.Equal([]string{
		"TrackedDeviceIndex_t", "VROverlayHandle_t", "glSharedTextureHandle_t", "TextureID_t",
		"Hmd_Eye", "TrackingUniverseOrigin", "Hmd_Error", "VRControllerState_t",
	}, names(h, KindTypedef))
	require.Equal([]string{
		"VR_IsHmdPresent", "VR_InitInternal", "VR_ShutdownInternal", "VR_GetVRInitErrorAsSymbol",
	}, names(h, KindFunc))
	require.Len(names(h, KindConst), 11)

	require.Contains(h.Macros, "S_API")
	require.Equal("", h.Macros["OPENVR_FNTABLE_CALLTYPE"])
}

func TestParseFileDetails(t *testing.T) {
	require := require.New(t)
	h := parseTestdata(t, "linux", "amd64")

	origin := h.Lookup("ETrackingUniverseOrigin")
	require.Equal("Identifies which style of tracking origin the application wants to use\nfor the poses it is requesting", origin.Doc)
	require.Len(origin.Enumerators, 3)
	require.Equal(&Enumerator{
		Name:  "ETrackingUniverseOrigin_TrackingUniverseSeated",
		Value: "0",
		Doc:   "Poses are provided relative to the seated zero pose",
	}, origin.Enumerators[0])
	require.Equal("2", origin.Enumerators[2].Value)

	ev := h.Lookup("VREvent_t")
	require.Equal("An event posted by the server to all running applications", ev.Doc)
	require.Equal([]*Field{
		{Name: "eventType", Type: "uint32_t", Doc: "EVREventType enum"},
		{Name: "trackedDeviceIndex", Type: "TrackedDeviceIndex_t"},
		{Name: "eventAgeSeconds", Type: "float"},
		{Name: "data", Type: "VREvent_Data_t"},
	}, ev.Fields)

	require.Equal(&Field{Name: "m", Type: "float [3][4]", Doc: "float[3][4]"}, h.Lookup("HmdMatrix34_t").Fields[0])
	require.Equal("struct VRControllerAxis_t [5]", h.Lookup("VRControllerState001_t").Fields[3].Type)
	require.Equal("uint8_t *", h.Lookup("RenderModel_TextureMap_t").Fields[2].Type)

	mouse := h.Lookup("VREvent_Mouse_t").Fields
	require.Len(mouse, 3)
	require.Equal("y", mouse[1].Name)
	require.Equal("float", mouse[1].Type)

	fn := h.Lookup("VR_IVRSystem_FnTable")
	require.True(fn.Tagged)
	require.Equal("GetRecommendedRenderTargetSize", fn.Fields[0].Name)
	require.Equal("IsTrackedDeviceConnected", fn.Fields[1].Name)

	td := h.Lookup("glSharedTextureHandle_t")
	require.Equal(KindTypedef, td.Kind)
	require.Equal("void *", td.Type)
	require.Equal("VRControllerState001_t", h.Lookup("VRControllerState_t").Type)

	c := h.Lookup("IVRSystem_Version")
	require.Equal(KindConst, c.Kind)
	require.Equal("char *", c.Type)
	require.Equal(`"FnTable:IVRSystem_017"`, c.Value)
	require.Equal("IVRSystem interface version", c.Doc)
	require.Equal("-1", h.Lookup("k_nInvalidIndex").Value)
	require.Equal("0.5f", h.Lookup("k_flMaxRange").Value)
	require.Equal("unsigned long long", h.Lookup("k_ulOverlayHandleInvalid").Type)

	initFn := h.Lookup("VR_InitInternal")
	require.Equal("intptr_t", initFn.Type)
	require.Equal([]*Param{
		{Name: "peError", Type: "EVRInitError *"},
		{Name: "eType", Type: "EVRApplicationType"},
	}, initFn.Params)
	require.Empty(h.Lookup("VR_ShutdownInternal").Params)
	present := h.Lookup("VR_IsHmdPresent")
	require.Equal("bool", present.Type)
	require.Equal("Returns true if there is an HMD attached.", present.Doc)
	require.Equal("const char *", h.Lookup("VR_GetVRInitErrorAsSymbol").Type)

	d, e := h.Enum("EVRButtonId_k_EButton_SteamVR_Trigger")
	require.Equal("EVRButtonId", d.Name)
	require.Equal("33", e.Value)
	d, e = h.Enum("NoSuchEnumerator")
	require.Nil(d)
	require.Nil(e)

	require.Equal(filepath.Join("testdata", "include", "openvr_capi.h"), ev.Pos.Filename)
	require.Equal(170, ev.Pos.Line)
}

func TestParseFileTargets(t *testing.T) {
	require.Nil(t, parseTestdata(t, "linux", "386").Lookup("EWindowsOnly"))
	require.Nil(t, parseTestdata(t, "darwin", "arm64").Lookup("EWindowsOnly"))
	win := parseTestdata(t, "windows", "amd64")
	require.NotNil(t, win.Lookup("EWindowsOnly"))
	require.Equal(t, "__stdcall", win.Macros["OPENVR_FNTABLE_CALLTYPE"])
}

func TestVersion(t *testing.T) {
	v, ok := parseTestdata(t, "linux", "amd64").Version()
	require.True(t, ok)
	require.Equal(t, "v1.0.17", v)

	_, ok = (&Header{}).Version()
	require.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name    string
		content string
		line    int
		msg     string
	}{
		{"unterminated.h", "#if 1\ntypedef int x;\n", 1, "unterminated conditional"},
		{"endif.h", "typedef int x;\n#endif\n", 2, "#endif without #if"},
		{"error.h", "#ifndef FOO\n#error FOO required\n#endif\n", 2, "#error FOO required"},
		{"include.h", "\n#include \"missing.h\"\n", 2, `include file "missing.h" not found`},
		{"decl.h", "typedef int x;\ntypedef int x[\n", 2, "unterminated declaration"},
		{"redecl.h", "typedef int x;\ntypedef float x;\n", 2, "x redeclared"},
		{"cond.h", "#if 1 +\n#endif\n", 1, "unexpected end of expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile(write(tt.name, tt.content), nil)
			var hErr *Error
			require.True(t, errors.As(err, &hErr), "%v", err)
			require.Equal(t, tt.line, hErr.Pos.Line)
			require.Contains(t, hErr.Error(), tt.msg)
		})
	}

	_, err := ParseFile(filepath.Join(dir, "nope.h"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRepeatedTypedef(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.h")
	require.NoError(t, os.WriteFile(p, []byte(`
typedef struct Pair Pair;
struct Pair
{
	int a, *b;
};
typedef int count_t;
typedef int count_t;
`), 0o644))
	h, err := ParseFile(p, nil)
	require.NoError(t, err)
	require.Len(t, h.Decls, 2)
	pair := h.Lookup("Pair")
	require.Equal(t, KindStruct, pair.Kind)
	require.False(t, pair.Tagged)
	require.Equal(t, []*Field{{Name: "a", Type: "int"}, {Name: "b", Type: "int *"}}, pair.Fields)
}

func TestEvalCond(t *testing.T) {
	macros := map[string]string{
		"_WIN32":    "1",
		"VERSION":   "3",
		"ALIAS":     "VERSION",
		"EMPTY":     "",
		"__GNUC__":  "4",
		"RECURSIVE": "RECURSIVE",
	}
	tests := []struct {
		expr string
		want int64
	}{
		{"1", 1},
		{"0", 0},
		{"defined(_WIN32)", 1},
		{"defined _WIN32", 1},
		{"defined( _X360 )", 0},
		{"defined( _WIN32 ) && !defined( _X360 )", 1},
		{"defined(__linux__) || defined(__APPLE__)", 0},
		{"VERSION >= 3", 1},
		{"ALIAS == 3 && VERSION != 2", 1},
		{"UNDEFINED", 0},
		{"defined(EMPTY)", 1},
		{"(1 + 2) - 3", 0},
		{"-1 < 0", 1},
		{"0x10 == 16", 1},
		{"10UL > 9u", 1},
		{"!(1 || 0)", 0},
		{"__GNUC__ > 3 || (__GNUC__ == 3 && 0)", 1},
	}
	for _, tt := range tests {
		got, err := evalCond(tt.expr, macros)
		require.NoError(t, err, tt.expr)
		require.Equal(t, tt.want, got, tt.expr)
	}

	for _, expr := range []string{"", "(1", "defined(", "1 2", "RECURSIVE", "1 &"} {
		_, err := evalCond(expr, macros)
		require.Error(t, err, expr)
	}
}

func TestParseInt(t *testing.T) {
	for lit, want := range map[string]int64{
		"0":                  0,
		"4294967295":         4294967295,
		"0x1F":               31,
		"64u":                64,
		"1ULL":               1,
		"-1":                 -1,
		"0xFFFFFFFFFFFFFFFF": -1,
		"010":                8,
	} {
		got, err := ParseInt(lit)
		require.NoError(t, err, lit)
		require.Equal(t, want, got, lit)
	}
	_, err := ParseInt("0.5f")
	require.Error(t, err)
}
