// Package asset classifies archive entry paths into the repository asset
// variants the ingest pipeline understands, and defines the tagged-union
// buffer type the streaming loader (package loader) yields.
package asset

import (
	"path"
	"strings"
)

// Variant discriminates the four recognized asset shapes inside a
// repository archive.
type Variant int

const (
	// NotAnAsset means the entry should be skipped: it matches none of the
	// recognized names or suffixes.
	NotAnAsset Variant = iota
	Release
	Builds
	DownloadCounts
	RepositoryRefList
)

func (v Variant) String() string {
	switch v {
	case Release:
		return "release"
	case Builds:
		return "builds"
	case DownloadCounts:
		return "download_counts"
	case RepositoryRefList:
		return "repository_ref_list"
	default:
		return "not_an_asset"
	}
}

// FromPath classifies p by its file name, ignoring any directory
// components and tolerating either slash convention. It is pure and has no
// dependency on whether the path actually exists in an archive.
func FromPath(p string) Variant {
	name := path.Base(strings.ReplaceAll(p, "\\", "/"))

	switch name {
	case "builds.json":
		return Builds
	case "repositories.json":
		return RepositoryRefList
	case "download_counts.json":
		return DownloadCounts
	}

	if strings.HasSuffix(name, ".ckan") && name != ".ckan" {
		return Release
	}

	return NotAnAsset
}

// Buf is one classified, fully-read archive entry: its path, the variant
// FromPath assigned it, and its raw bytes. The loader never emits a Buf for
// an entry that classifies as NotAnAsset.
type Buf struct {
	Path    string
	Variant Variant
	Data    []byte
}
