package gameversion

import (
	"encoding/json"
	"fmt"
)

// Spec is the JSON-facing form of a Version: it accepts the string "any",
// JSON null, or up to three dot-separated components ("major[.minor[.patch]]").
// It never carries a build component; that field only appears once a
// Version has been lifted out of the catalog (see [Spec.ToVersion]).
//
// Spec round-trips: "any" and null both decode to the same empty Version,
// yet marshaling re-emits "any" as "any" and null as null.
type Spec struct {
	version Version
	isNull  bool
}

// ToVersion lifts a Spec into the full 4-component Version stored in the
// catalog. The build slot is always absent: JSON input never specifies it.
func (s Spec) ToVersion() Version { return s.version }

// SpecFromVersion produces the JSON-facing form of v, discarding any build
// component (which GameVersionSpec cannot represent).
func SpecFromVersion(v Version) Spec {
	return Spec{version: Version{major: v.major, minor: v.minor, patch: v.patch}}
}

// IsEmpty reports whether s represents "any"/null/empty.
func (s Spec) IsEmpty() bool { return s.version.IsEmpty() }

func (s Spec) MarshalJSON() ([]byte, error) {
	if s.version.IsEmpty() {
		if s.isNull {
			return []byte("null"), nil
		}
		return []byte(`"any"`), nil
	}

	major, _ := s.version.major.Get()
	str := fmt.Sprintf("%d", major)
	if minor, ok := s.version.minor.Get(); ok {
		str += fmt.Sprintf(".%d", minor)
		if patch, ok := s.version.patch.Get(); ok {
			str += fmt.Sprintf(".%d", patch)
		}
	}
	return json.Marshal(str)
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Spec{isNull: true}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("game version spec: %w", err)
	}

	v, err := Parse(str)
	if err != nil {
		return fmt.Errorf("game version spec: %w", err)
	}
	if _, ok := v.build.Get(); ok {
		return &ParseError{Input: str, Err: ErrTooManyParts}
	}

	*s = Spec{version: v}
	return nil
}
