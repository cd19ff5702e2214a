package ckan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SpecVersion is the version of the CKAN metadata schema a release document
// declares. It has one irregularity: v1.0 serializes as the bare integer 1
// rather than the string "v1.0" every other version uses.
type SpecVersion struct {
	Major uint16
	Minor uint16
}

func (v SpecVersion) MarshalJSON() ([]byte, error) {
	if v.Major == 1 && v.Minor == 0 {
		return []byte("1"), nil
	}
	return json.Marshal(fmt.Sprintf("v%d.%d", v.Major, v.Minor))
}

func (v *SpecVersion) UnmarshalJSON(data []byte) error {
	var asInt uint16
	if err := json.Unmarshal(data, &asInt); err == nil {
		if asInt != 1 {
			return fmt.Errorf("spec version: integer form only permits 1, got %d", asInt)
		}
		*v = SpecVersion{Major: 1, Minor: 0}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("spec version: %w", err)
	}

	trimmed, ok := strings.CutPrefix(s, "v")
	if !ok {
		return fmt.Errorf("spec version %q: must be \"vMAJOR.MINOR\" or integer 1", s)
	}
	var major, minor uint16
	if _, err := fmt.Sscanf(trimmed, "%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("spec version %q: %w", s, err)
	}
	*v = SpecVersion{Major: major, Minor: minor}
	return nil
}
