package catalogstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lewisfm/camrete/asset"
	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/ckan"
)

// parsedAsset is the typed result of running the asset parser (C5) on one
// buffer: exactly one of the four payload fields is set, selected by
// Variant, matching the tagged-union design note in spec.md §9.
type parsedAsset struct {
	Path    string
	Variant asset.Variant

	Release        *ckan.Release
	Builds         *ckan.Builds
	DownloadCounts *ckan.DownloadCounts
	RefList        *ckan.RepositoryRefList
}

// parseAsset decodes buf according to its classified variant and wraps
// any failure with the repository URL and in-archive path so operators can
// tell which file in which repository failed.
func parseAsset(repoURL string, buf asset.Buf) (parsedAsset, error) {
	pa := parsedAsset{Path: buf.Path, Variant: buf.Variant}

	switch buf.Variant {
	case asset.Release:
		r, err := ckan.ParseRelease(buf.Data)
		if err != nil {
			return parsedAsset{}, &catalog.AssetInvalidError{RepoURL: repoURL, Path: buf.Path, Err: err}
		}
		pa.Release = &r

	case asset.Builds:
		var b ckan.Builds
		if err := json.Unmarshal(buf.Data, &b); err != nil {
			var buildErr *ckan.BuildParseError
			buildID := ""
			if errors.As(err, &buildErr) {
				buildID = buildErr.BuildID
			}
			return parsedAsset{}, &catalog.GameVersionParseError{RepoURL: repoURL, Path: buf.Path, BuildID: buildID, Err: err}
		}
		pa.Builds = &b

	case asset.DownloadCounts:
		var dc ckan.DownloadCounts
		if err := json.Unmarshal(buf.Data, &dc); err != nil {
			return parsedAsset{}, &catalog.AssetInvalidError{RepoURL: repoURL, Path: buf.Path, Err: err}
		}
		pa.DownloadCounts = &dc

	case asset.RepositoryRefList:
		var l ckan.RepositoryRefList
		if err := json.Unmarshal(buf.Data, &l); err != nil {
			return parsedAsset{}, &catalog.AssetInvalidError{RepoURL: repoURL, Path: buf.Path, Err: err}
		}
		pa.RefList = &l

	default:
		return parsedAsset{}, fmt.Errorf("catalogstore: unclassified asset %s reached the parser", buf.Path)
	}

	return pa, nil
}
