package gameversion

import "encoding/json"

// storageForm is the catalog's on-disk JSON shape for a Version: one
// nullable integer per component. It's distinct from Spec, which is the
// CKAN-input shape (string "any"/null/up to 3 components) — the catalog
// always persists all four slots, including Build, which Spec can never
// carry.
type storageForm struct {
	Major *uint32 `json:"major,omitempty"`
	Minor *uint32 `json:"minor,omitempty"`
	Patch *uint32 `json:"patch,omitempty"`
	Build *uint32 `json:"build,omitempty"`
}

func componentPtr(c Component) *uint32 {
	if n, ok := c.Get(); ok {
		return &n
	}
	return nil
}

func componentFromPtr(p *uint32) Component {
	if p == nil {
		return None
	}
	return Some(*p)
}

// MarshalJSON renders v as its catalog storage form: one nullable integer
// per component slot.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(storageForm{
		Major: componentPtr(v.major),
		Minor: componentPtr(v.minor),
		Patch: componentPtr(v.patch),
		Build: componentPtr(v.build),
	})
}

// UnmarshalJSON parses the catalog storage form back into a Version.
func (v *Version) UnmarshalJSON(data []byte) error {
	var sf storageForm
	if err := json.Unmarshal(data, &sf); err != nil {
		return err
	}
	*v = Version{
		major: componentFromPtr(sf.Major),
		minor: componentFromPtr(sf.Minor),
		patch: componentFromPtr(sf.Patch),
		build: componentFromPtr(sf.Build),
	}
	return nil
}
