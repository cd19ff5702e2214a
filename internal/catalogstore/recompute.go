package catalogstore

import (
	"context"
	"database/sql"
	"sort"

	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/moduleversion"
)

// recomputeDerivedData implements C8 for one module: read its releases,
// sort them by ModuleVersion, and stamp sort_index/up_to_date so sort_index
// is the contiguous range [0..n) increasing with ModuleVersion order and
// exactly the largest one has up_to_date = true.
func recomputeDerivedData(ctx context.Context, tx *sql.Tx, moduleID int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT release_id, version FROM module_releases WHERE module_id = ?`, moduleID)
	if err != nil {
		return &catalog.StoreFailureError{Op: "recompute: select releases", Err: err}
	}

	type row struct {
		id      int64
		version moduleversion.Version
	}
	var releases []row
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return &catalog.StoreFailureError{Op: "recompute: scan release", Err: err}
		}
		releases = append(releases, row{id: id, version: moduleversion.Parse(raw)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return &catalog.StoreFailureError{Op: "recompute: iterate releases", Err: err}
	}
	rows.Close()

	sort.Slice(releases, func(i, j int) bool { return releases[i].version.Less(releases[j].version) })

	for i, r := range releases {
		upToDate := i == len(releases)-1
		if _, err := tx.ExecContext(ctx, `UPDATE module_releases SET sort_index = ?, up_to_date = ? WHERE release_id = ?`,
			i, upToDate, r.id); err != nil {
			return &catalog.StoreFailureError{Op: "recompute: update release", Err: err}
		}
	}

	return nil
}
