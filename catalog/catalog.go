// Package catalog defines the relational data model for the module catalog:
// repositories, modules, releases, and the side tables and relationship
// groups a release owns. Types here are storage-shape structs populated by
// internal/catalogstore and consumed by the CLI's show path; they carry no
// persistence logic of their own.
package catalog

import (
	"time"

	"github.com/lewisfm/camrete/gameversion"
	"github.com/lewisfm/camrete/moduleversion"
)

// Repository is a named remote source of module releases.
type Repository struct {
	ID       int64
	Name     string
	URL      string
	Priority int32
}

// RepositoryRef is a pointer to another repository, transcribed from a
// discovered repositories.json asset.
type RepositoryRef struct {
	ReferrerID int64
	URL        string
	Name       string
	Priority   int32
}

// Etag is the last observed HTTP ETag for a URL.
type Etag struct {
	URL   string
	Value string
}

// Module is a package identified by a slug, unique within its Repository.
type Module struct {
	ID            int64
	RepoID        int64
	Slug          string
	DownloadCount int64
}

// ModuleKind distinguishes a full package from a metapackage or DLC entry.
type ModuleKind int32

const (
	KindPackage ModuleKind = iota
	KindMetapackage
	KindDLC
)

func (k ModuleKind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindMetapackage:
		return "metapackage"
	case KindDLC:
		return "dlc"
	default:
		return "unknown"
	}
}

// ReleaseStatus is a release's maturity.
type ReleaseStatus int32

const (
	StatusStable ReleaseStatus = iota
	StatusTesting
	StatusDevelopment
)

func (s ReleaseStatus) String() string {
	switch s {
	case StatusStable:
		return "stable"
	case StatusTesting:
		return "testing"
	case StatusDevelopment:
		return "development"
	default:
		return "unknown"
	}
}

// ModuleRelease is one version of a Module.
type ModuleRelease struct {
	ID                 int64
	ModuleID           int64
	Version            moduleversion.Version
	DisplayName        string
	Kind               ModuleKind
	Summary            string
	Description        string
	ReleaseStatus      ReleaseStatus
	GameVersion        gameversion.Version
	GameVersionMin     gameversion.Version
	GameVersionStrict  bool
	DownloadSize       *int64
	InstallSize        *int64
	ReleaseDate        *time.Time
	Metadata           ReleaseMetadata

	// Derived by a recompute pass (internal/catalogstore); zero until then.
	SortIndex int32
	UpToDate  bool
}

// DownloadChecksum is the declared hash of a release's download artifact.
type DownloadChecksum struct {
	Algorithm string
	Value     string
}

// ModuleResources is the set of named external links a release may carry.
type ModuleResources struct {
	Homepage    string
	Repository  string
	Bugtracker  string
	CI          string
	Spacedock   string
	Curse       string
	Screenshot  string
	Manual      string
}

// InstallDirective describes where a file from the download archive is
// placed on the target system.
type InstallDirective struct {
	File            string
	InstallTo       string
	As              string
	Filter          []string
	FilterRegexp    []string
	Find            string
	FindRegexp      string
	FindMatchesFiles bool
}

// ReleaseMetadata holds the less-queried structured data of a release,
// stored as a single JSON blob alongside the scalar columns.
type ReleaseMetadata struct {
	Comment            string
	DownloadURLs       []string
	DownloadHash       *DownloadChecksum
	DownloadContentType string
	Resources          ModuleResources
	Install            []InstallDirective
}

// ModuleTag and ModuleAuthor are ordered side-lists owned by a
// ModuleRelease; ModuleLocale is an unordered one and carries no ordinal.
type ModuleTag struct {
	ReleaseID int64
	Ordinal   int32
	Tag       string
}

type ModuleAuthor struct {
	ReleaseID int64
	Ordinal   int32
	Author    string
}

type ModuleLocale struct {
	ReleaseID int64
	Locale    string
}

// ModuleLicense is an unordered license identifier owned by a release.
type ModuleLicense struct {
	ReleaseID int64
	License   string
}

// RelationshipType is one of a release's dependency relations.
type RelationshipType int32

const (
	RelDepends RelationshipType = iota
	RelRecommends
	RelSuggests
	RelSupports
	RelConflicts
	RelProvides
	RelReplacedBy
)

func (r RelationshipType) String() string {
	switch r {
	case RelDepends:
		return "depends"
	case RelRecommends:
		return "recommends"
	case RelSuggests:
		return "suggests"
	case RelSupports:
		return "supports"
	case RelConflicts:
		return "conflicts"
	case RelProvides:
		return "provides"
	case RelReplacedBy:
		return "replaced_by"
	default:
		return "unknown"
	}
}

// RelationshipGroup is one top-level dependency descriptor of a release. A
// group with more than one Relationship member is an "any-of" group.
type RelationshipGroup struct {
	ID                      int64
	ReleaseID               int64
	Ordinal                 int32
	RelType                 RelationshipType
	ChoiceHelpText          string
	SuppressRecommendations bool
}

// Relationship is a single target within a RelationshipGroup.
type Relationship struct {
	ID                int64
	GroupID           int64
	Ordinal           int32
	TargetName        string
	TargetVersion     string
	TargetVersionMin  string
}

// Build maps a known game build id to the GameVersion it corresponds to.
type Build struct {
	BuildID     int64
	GameVersion gameversion.Version
}
