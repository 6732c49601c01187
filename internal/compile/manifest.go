package compile

import (
	"github.com/naoina/toml"
)

// Manifest is the Cargo.toml written into every workspace.
type Manifest struct {
	Package      ManifestPackage      `toml:"package"`
	Lib          ManifestLib          `toml:"lib"`
	Dependencies ManifestDependencies `toml:"dependencies"`
	Profile      ManifestProfiles     `toml:"profile"`
}

type ManifestPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

type ManifestLib struct {
	CrateType []string `toml:"crate-type"`
}

type ManifestDependencies struct {
	NearSDK string             `toml:"near-sdk"`
	Borsh   ManifestDependency `toml:"borsh"`
}

type ManifestDependency struct {
	Version  string   `toml:"version"`
	Features []string `toml:"features"`
}

type ManifestProfiles struct {
	Release ManifestProfile `toml:"release"`
}

type ManifestProfile struct {
	CodegenUnits   int    `toml:"codegen-units"`
	OptLevel       string `toml:"opt-level"`
	LTO            bool   `toml:"lto"`
	Debug          bool   `toml:"debug"`
	Panic          string `toml:"panic"`
	OverflowChecks bool   `toml:"overflow-checks"`
}

// NewManifest returns the manifest of a NEAR contract library named name.
// The release profile minimizes code size and keeps overflow checks.
func NewManifest(name string) *Manifest {
	return &Manifest{
		Package: ManifestPackage{
			Name:    name,
			Version: "0.1.0",
			Edition: "2021",
		},
		Lib: ManifestLib{
			CrateType: []string{"cdylib"},
		},
		Dependencies: ManifestDependencies{
			NearSDK: "5.5.0",
			Borsh: ManifestDependency{
				Version:  "1.0",
				Features: []string{"derive"},
			},
		},
		Profile: ManifestProfiles{
			Release: ManifestProfile{
				CodegenUnits:   1,
				OptLevel:       "z",
				LTO:            true,
				Debug:          false,
				Panic:          "abort",
				OverflowChecks: true,
			},
		},
	}
}

func (m *Manifest) Marshal() ([]byte, error) {
	return toml.Marshal(m)
}
