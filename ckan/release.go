// Package ckan decodes and validates the JSON asset formats found inside a
// repository archive: release (.ckan) documents, builds.json,
// download_counts.json, and repositories.json.
package ckan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/lewisfm/camrete/gameversion"
)

// Kind mirrors catalog.ModuleKind in the JSON vocabulary ("package" is the
// default when the field is absent).
type Kind string

const (
	KindPackage     Kind = "package"
	KindMetapackage Kind = "metapackage"
	KindDLC         Kind = "dlc"
)

// ReleaseStatus mirrors catalog.ReleaseStatus ("stable" is the default).
type ReleaseStatus string

const (
	StatusStable      ReleaseStatus = "stable"
	StatusTesting      ReleaseStatus = "testing"
	StatusDevelopment ReleaseStatus = "development"
)

// DownloadChecksum is the declared hash of a release's download artifact.
type DownloadChecksum struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// Resources is the set of named external links a release may carry. All
// are optional.
type Resources struct {
	Homepage   string `json:"homepage,omitempty"`
	Repository string `json:"repository,omitempty"`
	Bugtracker string `json:"bugtracker,omitempty"`
	CI         string `json:"ci,omitempty"`
	Spacedock  string `json:"spacedock,omitempty"`
	Curse      string `json:"curse,omitempty"`
	Screenshot string `json:"x_screenshot,omitempty"`
	Manual     string `json:"manual,omitempty"`
}

// InstallDirective describes where one file from the download archive is
// placed on the target system.
type InstallDirective struct {
	File             string   `json:"file,omitempty"`
	InstallTo        string   `json:"install_to"`
	As               string   `json:"as,omitempty"`
	Filter           []string `json:"filter,omitempty"`
	FilterRegexp     []string `json:"filter_regexp,omitempty"`
	Find             string   `json:"find,omitempty"`
	FindRegexp       string   `json:"find_regexp,omitempty"`
	FindMatchesFiles bool     `json:"find_matches_files,omitempty"`
}

// RelationshipDescriptor is one entry of a release's depends/recommends/
// suggests/supports/conflicts/replaced_by list: either a direct target, or
// an "any-of" group recursing into more descriptors.
type RelationshipDescriptor struct {
	// Direct target fields; empty Name means this is an any-of group.
	Name       string `json:"name,omitempty"`
	Version    string `json:"version,omitempty"`
	MinVersion string `json:"min_version,omitempty"`
	MaxVersion string `json:"max_version,omitempty"`

	// Any-of group fields.
	AnyOf          []RelationshipDescriptor `json:"any_of,omitempty"`
	ChoiceHelpText string                   `json:"choice_help_text,omitempty"`
	SuppressRecommendations bool            `json:"suppress_recommendations,omitempty"`
}

// IsAnyOf reports whether d is an any-of group rather than a direct target.
func (d RelationshipDescriptor) IsAnyOf() bool { return d.Name == "" && len(d.AnyOf) > 0 }

// Release is the decoded form of one .ckan asset.
type Release struct {
	SpecVersion SpecVersion `json:"spec_version"`
	Identifier  string      `json:"identifier"`
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Abstract    string      `json:"abstract"`
	Description string      `json:"description,omitempty"`
	Comment     string      `json:"comment,omitempty"`

	Author OneOrMany[string] `json:"author,omitempty"`
	Tags   []string          `json:"tags,omitempty"`

	License OneOrMany[string] `json:"license,omitempty"`

	Kind          Kind          `json:"kind,omitempty"`
	ReleaseStatus ReleaseStatus `json:"release_status,omitempty"`

	KSPVersion     gameversion.Spec `json:"ksp_version,omitempty"`
	KSPVersionMin  gameversion.Spec `json:"ksp_version_min,omitempty"`
	KSPVersionMax  gameversion.Spec `json:"ksp_version_max,omitempty"`
	KSPVersionStrict bool           `json:"ksp_version_strict,omitempty"`

	Download            OneOrMany[string] `json:"download,omitempty"`
	DownloadSize        *int64            `json:"download_size,omitempty"`
	InstallSize         *int64            `json:"install_size,omitempty"`
	DownloadHash        *DownloadChecksum `json:"download_hash,omitempty"`
	DownloadContentType string            `json:"download_content_type,omitempty"`
	ReleaseDate         *string           `json:"release_date,omitempty"`

	Resources Resources          `json:"resources,omitempty"`
	Install   []InstallDirective `json:"install,omitempty"`

	Locales []string `json:"localizations,omitempty"`

	Depends     []RelationshipDescriptor `json:"depends,omitempty"`
	Recommends  []RelationshipDescriptor `json:"recommends,omitempty"`
	Suggests    []RelationshipDescriptor `json:"suggests,omitempty"`
	Supports    []RelationshipDescriptor `json:"supports,omitempty"`
	Conflicts   []RelationshipDescriptor `json:"conflicts,omitempty"`
	ReplacedBy  []RelationshipDescriptor `json:"replaced_by,omitempty"`
}

// ErrDuplicateVersionConstraint is returned by verify when a release gives
// both the catch-all ksp_version and either of its min/max refinements.
var ErrDuplicateVersionConstraint = errors.New("ksp_version is mutually exclusive with ksp_version_min/ksp_version_max")

// ErrDisallowedMaxVersionInReplacement is returned by verify when a
// replaced_by entry declares a max_version, which CKAN forbids (a
// replacement target has no upper bound).
var ErrDisallowedMaxVersionInReplacement = errors.New("replaced_by entries may not declare max_version")

// ParseRelease decodes a .ckan document and runs its validation rules.
func ParseRelease(data []byte) (Release, error) {
	var r Release
	if err := json.Unmarshal(data, &r); err != nil {
		return Release{}, err
	}
	if r.Kind == "" {
		r.Kind = KindPackage
	}
	if r.ReleaseStatus == "" {
		r.ReleaseStatus = StatusStable
	}
	if err := r.verify(); err != nil {
		return Release{}, err
	}
	return r, nil
}

func (r Release) verify() error {
	if !r.KSPVersion.IsEmpty() && (!r.KSPVersionMin.IsEmpty() || !r.KSPVersionMax.IsEmpty()) {
		return ErrDuplicateVersionConstraint
	}
	if hasMaxVersion(r.ReplacedBy) {
		return ErrDisallowedMaxVersionInReplacement
	}
	return nil
}

func hasMaxVersion(descs []RelationshipDescriptor) bool {
	for _, d := range descs {
		if d.MaxVersion != "" {
			return true
		}
		if hasMaxVersion(d.AnyOf) {
			return true
		}
	}
	return false
}

// Builds is the decoded form of builds.json: a map from build id to the
// parsed game version it corresponds to.
type Builds struct {
	BuildVersions map[int64]gameversion.Version
}

// BuildParseError names the specific build entry whose id or version
// string failed to parse, so callers can report which build within
// builds.json was at fault instead of just that the file was malformed.
type BuildParseError struct {
	BuildID string
	Err     error
}

func (e *BuildParseError) Error() string { return fmt.Sprintf("build %s: %s", e.BuildID, e.Err) }
func (e *BuildParseError) Unwrap() error  { return e.Err }

func (b *Builds) UnmarshalJSON(data []byte) error {
	var raw struct {
		Builds map[string]string `json:"builds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(map[int64]gameversion.Version, len(raw.Builds))
	for k, v := range raw.Builds {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return &BuildParseError{BuildID: k, Err: err}
		}
		gv, err := gameversion.Parse(v)
		if err != nil {
			return &BuildParseError{BuildID: k, Err: err}
		}
		out[id] = gv
	}
	b.BuildVersions = out
	return nil
}

// DownloadCounts is the decoded form of download_counts.json: a map from
// module slug to observed download count.
type DownloadCounts map[string]int64

// RepositoryRef is one entry of repositories.json's repository list.
type RepositoryRef struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Priority int32  `json:"priority,omitempty"`
	XMirror  string `json:"x_mirror,omitempty"`
	XComment string `json:"x_comment,omitempty"`
}

// RepositoryRefList is the decoded form of repositories.json.
type RepositoryRefList struct {
	Repositories []RepositoryRef `json:"repositories"`
}
