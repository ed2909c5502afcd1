package nativelib

import "fmt"

type Strategy string

const (
	// Build the vendored sources with their own CMake build.
	StrategySource Strategy = "source"
	// Link the binaries shipped in the vendored tree.
	StrategyPrebuilt Strategy = "prebuilt"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySource, StrategyPrebuilt:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

type LinkKind int

const (
	LinkStatic LinkKind = iota
	LinkShared
	LinkFramework
)

func (k LinkKind) String() string {
	switch k {
	case LinkStatic:
		return "static"
	case LinkShared:
		return "shared"
	case LinkFramework:
		return "framework"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

// Library names the artifact to link and how.
type Library struct {
	// Name as passed to the linker (-l<Name>, -framework <Name>).
	Name string
	Kind LinkKind
	// File name of the artifact inside the search path.
	Artifact string
}

type platform struct {
	os    OS
	width int

	// Library produced by the CMake install step under <prefix>/lib.
	source Library
	// Subdirectory of the vendored tree holding prebuilt binaries.
	prebuiltDir string
	prebuilt    Library
	// Companion system library needed by symbols the native library
	// pulls in.
	system string
}

var platforms = []platform{
	{
		os: Linux, width: 32,
		source:      Library{Name: "openvr_api", Kind: LinkStatic, Artifact: "libopenvr_api.a"},
		prebuiltDir: "lib/linux32",
		prebuilt:    Library{Name: "openvr_api", Kind: LinkShared, Artifact: "libopenvr_api.so"},
		system:      "stdc++",
	},
	{
		os: Linux, width: 64,
		source:      Library{Name: "openvr_api", Kind: LinkStatic, Artifact: "libopenvr_api.a"},
		prebuiltDir: "lib/linux64",
		prebuilt:    Library{Name: "openvr_api", Kind: LinkShared, Artifact: "libopenvr_api.so"},
		system:      "stdc++",
	},
	{
		// OpenVR ships a single universal framework under osx32.
		os: Darwin, width: 64,
		source:      Library{Name: "OpenVR", Kind: LinkFramework, Artifact: "OpenVR.framework"},
		prebuiltDir: "bin/osx32",
		prebuilt:    Library{Name: "OpenVR", Kind: LinkFramework, Artifact: "OpenVR.framework"},
		system:      "c++",
	},
	{
		os: Windows, width: 32,
		source:      Library{Name: "openvr_api", Kind: LinkStatic, Artifact: "libopenvr_api.a"},
		prebuiltDir: "lib/win32",
		prebuilt:    Library{Name: "openvr_api", Kind: LinkShared, Artifact: "openvr_api.lib"},
		system:      "shell32",
	},
	{
		os: Windows, width: 64,
		source:      Library{Name: "openvr_api64", Kind: LinkStatic, Artifact: "libopenvr_api64.a"},
		prebuiltDir: "lib/win64",
		prebuilt:    Library{Name: "openvr_api", Kind: LinkShared, Artifact: "openvr_api.lib"},
		system:      "shell32",
	},
}

func lookupPlatform(t Target) (platform, bool) {
	for _, p := range platforms {
		if p.os == t.OS && p.width == t.PointerWidth {
			return p, true
		}
	}
	return platform{}, false
}
