package catalogstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v8"

	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/moduleversion"
)

// AddRepository registers a repository to ingest, or updates its url/
// priority if the name is already known. Nothing in spec.md's ingest path
// discovers a repository's initial name/url on its own — this is the seam
// an operator (or a future `camrete repo add` subcommand) uses to populate
// the set that C13 fans out across.
func (s *Store) AddRepository(ctx context.Context, name, url string, priority int32) (catalog.Repository, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO repositories (name, url, priority) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET url = excluded.url, priority = excluded.priority
		RETURNING repo_id`, name, url, priority).Scan(&id)
	if err != nil {
		return catalog.Repository{}, &catalog.StoreFailureError{Op: fmt.Sprintf("add repository %s", name), Err: err}
	}
	return catalog.Repository{ID: id, Name: name, URL: url, Priority: priority}, nil
}

// Repositories returns every known repository, for driving the ingest
// runner's per-repository fan-out.
func (s *Store) Repositories(ctx context.Context) ([]catalog.Repository, error) {
	dialect := goqu.Dialect("sqlite3")
	query, args, err := dialect.From("repositories").
		Select("repo_id", "name", "url", "priority").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("catalogstore: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &catalog.StoreFailureError{Op: "list repositories", Err: err}
	}
	defer rows.Close()

	var out []catalog.Repository
	for rows.Next() {
		var r catalog.Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.URL, &r.Priority); err != nil {
			return nil, &catalog.StoreFailureError{Op: "scan repository", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NewestRelease returns the release with up_to_date = true for the given
// module slug, searching across all repositories. It returns sql.ErrNoRows
// if no module with that slug has any release.
func (s *Store) NewestRelease(ctx context.Context, slug string) (catalog.ModuleRelease, error) {
	dialect := goqu.Dialect("sqlite3")
	query, args, err := dialect.From(goqu.T("module_releases").As("r")).
		InnerJoin(goqu.T("modules").As("m"), goqu.On(goqu.I("r.module_id").Eq(goqu.I("m.module_id")))).
		Select(
			"r.release_id", "r.module_id", "r.version", "r.display_name", "r.kind", "r.summary",
			"r.description", "r.release_status", "r.game_version", "r.game_version_min",
			"r.game_version_strict", "r.download_size", "r.install_size", "r.metadata",
			"r.sort_index", "r.up_to_date",
		).
		Where(goqu.I("m.module_slug").Eq(slug), goqu.I("r.up_to_date").Eq(true)).
		ToSQL()
	if err != nil {
		return catalog.ModuleRelease{}, fmt.Errorf("catalogstore: build query: %w", err)
	}

	var rel catalog.ModuleRelease
	var kind, status int32
	var version string
	var gvJSON, gvMinJSON, metaJSON []byte
	row := s.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&rel.ID, &rel.ModuleID, &version, &rel.DisplayName, &kind, &rel.Summary,
		&rel.Description, &status, &gvJSON, &gvMinJSON, &rel.GameVersionStrict,
		&rel.DownloadSize, &rel.InstallSize, &metaJSON, &rel.SortIndex, &rel.UpToDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.ModuleRelease{}, err
		}
		return catalog.ModuleRelease{}, &catalog.StoreFailureError{Op: "query newest release", Err: err}
	}

	rel.Version = moduleversion.Parse(version)
	rel.Kind = catalog.ModuleKind(kind)
	rel.ReleaseStatus = catalog.ReleaseStatus(status)
	if err := json.Unmarshal(gvJSON, &rel.GameVersion); err != nil {
		return catalog.ModuleRelease{}, &catalog.StoreFailureError{Op: "unmarshal game_version", Err: err}
	}
	if err := json.Unmarshal(gvMinJSON, &rel.GameVersionMin); err != nil {
		return catalog.ModuleRelease{}, &catalog.StoreFailureError{Op: "unmarshal game_version_min", Err: err}
	}
	if err := json.Unmarshal(metaJSON, &rel.Metadata); err != nil {
		return catalog.ModuleRelease{}, &catalog.StoreFailureError{Op: "unmarshal metadata", Err: err}
	}
	return rel, nil
}
