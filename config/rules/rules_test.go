package rules_test

import (
	"regexp"
	"testing"

	"github.com/ovrgo/openvr/config"
	"github.com/ovrgo/openvr/config/rules"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func rule(name, kind string, apply func(r *config.Rule)) config.Rule {
	var r config.Rule
	if name != "" {
		r.Select.Name = regexp.MustCompile(name)
	}
	r.Select.Kind = kind
	apply(&r)
	return r
}

var syms = []rules.Symbol{
	{Name: "Hmd_Error", Kind: "enum", GoName: "Hmd_Error"},
	{Name: "EVREye", Kind: "enum", GoName: "EVREye"},
	{Name: "EVREye_Eye_Left", Kind: "enumerator", GoName: "Eye_Left"},
	{Name: "VREvent_t", Kind: "struct", GoName: "VREvent_t"},
	{Name: "k_unMaxTrackedDeviceCount", Kind: "const", GoName: "K_unMaxTrackedDeviceCount"},
	{Name: "VR_IsHmdPresent", Kind: "func", GoName: "VR_IsHmdPresent"},
}

func TestExecute(t *testing.T) {
	require := require.New(t)

	c := &config.Config{Rules: []config.Rule{
		rule("Hmd_Error|VRState_t", "", func(r *config.Rule) { r.Actions.Include = ptr(false) }),
		rule("VREvent_t", "", func(r *config.Rule) { r.Actions.Manual = ptr(true) }),
		rule(`VR_(\w+)`, "func", func(r *config.Rule) { r.Actions.Rename = `\1` }),
		rule(`k_un(\w+)`, "const", func(r *config.Rule) { r.Actions.Rename = `\1` }),
	}}

	res, err := rules.Execute(c, syms)
	require.NoError(err)

	require.Equal(rules.Decision{GoName: "Hmd_Error", Include: false}, res["Hmd_Error"])
	require.Equal(rules.Decision{GoName: "EVREye", Include: true}, res["EVREye"])
	require.Equal(rules.Decision{GoName: "Eye_Left", Include: true}, res["EVREye_Eye_Left"])
	require.Equal(rules.Decision{GoName: "VREvent_t", Include: true, Manual: true}, res["VREvent_t"])
	require.Equal("MaxTrackedDeviceCount", res["k_unMaxTrackedDeviceCount"].GoName)
	require.Equal("IsHmdPresent", res["VR_IsHmdPresent"].GoName)
}

func TestExecuteSelectorMustMatchWholeName(t *testing.T) {
	require := require.New(t)

	c := &config.Config{Rules: []config.Rule{
		rule("VREvent", "", func(r *config.Rule) { r.Actions.Include = ptr(false) }),
	}}
	res, err := rules.Execute(c, syms)
	require.NoError(err)
	require.True(res["VREvent_t"].Include)
}

func TestExecuteKindFilter(t *testing.T) {
	require := require.New(t)

	c := &config.Config{Rules: []config.Rule{
		rule("", "enum", func(r *config.Rule) { r.Actions.ToCasing = "screaming-snake" }),
	}}
	res, err := rules.Execute(c, syms)
	require.NoError(err)
	require.Equal("HMD_ERROR", res["Hmd_Error"].GoName)
	require.Equal("EVR_EYE", res["EVREye"].GoName)
	require.Equal("VREvent_t", res["VREvent_t"].GoName)
}

func TestExecuteConflict(t *testing.T) {
	c := &config.Config{Rules: []config.Rule{
		rule("EVREye", "", func(r *config.Rule) { r.Actions.Rename = "VREvent_t" }),
	}}
	_, err := rules.Execute(c, syms)
	require.ErrorContains(t, err, "would conflict with VREvent_t")
}

func TestExecuteInvalidIdentifier(t *testing.T) {
	c := &config.Config{Rules: []config.Rule{
		rule("EVREye", "", func(r *config.Rule) { r.Actions.Rename = "EVR-Eye" }),
	}}
	_, err := rules.Execute(c, syms)
	require.ErrorContains(t, err, "not a valid Go identifier")
}

func TestExecuteDuplicate(t *testing.T) {
	_, err := rules.Execute(&config.Config{}, []rules.Symbol{
		{Name: "A", Kind: "enum", GoName: "A"},
		{Name: "A", Kind: "struct", GoName: "A2"},
	})
	require.ErrorContains(t, err, "duplicate struct symbol: A")
}
