package catalogstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lewisfm/camrete/asset"
	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/ckan"
	"github.com/lewisfm/camrete/loader"
	"github.com/lewisfm/camrete/pkg/microbatch"
	"github.com/lewisfm/camrete/progress"
)

// parserConcurrency bounds the task pool C5 runs on; buffers in flight are
// bounded by this width, not by the archive size (spec.md §4.7 step 1).
const parserConcurrency = 8

// batchSize is the microbatch threshold used for every side-table writer
// in an ingest transaction.
const batchSize = 100

type parseResult struct {
	asset parsedAsset
	err   error
}

// Ingest implements C7: drain l's asset stream (parsing each buffer off
// the receive path on a bounded task pool), and atomically replace repo's
// previous snapshot of modules with what was parsed. etag, if non-empty,
// is upserted alongside. rep may be nil.
func Ingest(ctx context.Context, s *Store, repo catalog.Repository, l loader.AssetLoader, etag string, rep *progress.Reporter) error {
	// fanOutParse's producer goroutine keeps running (and its workers
	// keep trying to send) until this context is done; cancel
	// unconditionally on return so an early error here never leaves it
	// blocked sending into a channel nobody drains anymore.
	parseCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := fanOutParse(parseCtx, repo.URL, l, rep)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &catalog.StoreFailureError{Op: "begin ingest transaction", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if etag != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO etags (url, value) VALUES (?, ?)
			ON CONFLICT (url) DO UPDATE SET value = excluded.value`, repo.URL, etag); err != nil {
			return &catalog.StoreFailureError{Op: "upsert etag", Err: err}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE repo_id = ?`, repo.ID); err != nil {
		return &catalog.StoreFailureError{Op: "delete prior modules", Err: err}
	}

	moduleIDs := map[string]int64{}
	touched := map[int64]bool{}

	tagBatch := microbatch.NewInsert(tx, batchSize)
	authorBatch := microbatch.NewInsert(tx, batchSize)
	licenseBatch := microbatch.NewInsert(tx, batchSize)
	localeBatch := microbatch.NewInsert(tx, batchSize)
	relBatch := microbatch.NewInsert(tx, batchSize)

	for res := range results {
		if res.err != nil {
			return res.err
		}

		switch res.asset.Variant {
		case asset.Release:
			moduleID, err := ingestRelease(ctx, tx, repo.ID, moduleIDs, *res.asset.Release,
				tagBatch, authorBatch, licenseBatch, localeBatch, relBatch)
			if err != nil {
				return err
			}
			touched[moduleID] = true

		case asset.Builds:
			if err := ingestBuilds(ctx, tx, *res.asset.Builds); err != nil {
				return err
			}

		case asset.DownloadCounts:
			if _, err := ingestDownloadCounts(ctx, tx, repo.ID, moduleIDs, *res.asset.DownloadCounts); err != nil {
				return err
			}

		case asset.RepositoryRefList:
			if err := ingestRepositoryRefs(ctx, tx, repo.ID, *res.asset.RefList); err != nil {
				return err
			}
		}
	}

	for _, b := range []*microbatch.Insert{tagBatch, authorBatch, licenseBatch, localeBatch, relBatch} {
		if err := b.Done(ctx); err != nil {
			return &catalog.StoreFailureError{Op: "flush side-table batch", Err: err}
		}
	}

	if rep != nil {
		rep.SetComputingDerivedData(true)
	}
	for moduleID := range touched {
		if err := recomputeDerivedData(ctx, tx, moduleID); err != nil {
			return err
		}
	}
	if rep != nil {
		rep.SetComputingDerivedData(false)
	}

	if err := tx.Commit(); err != nil {
		return &catalog.StoreFailureError{Op: "commit ingest transaction", Err: err}
	}
	committed = true
	return nil
}

// fanOutParse ranges over l's asset stream, dispatching each buffer to the
// parser on a bounded goroutine pool, and returns a channel of results in
// completion order (not archive order — spec.md §5's stated guarantee).
func fanOutParse(ctx context.Context, repoURL string, l loader.AssetLoader, rep *progress.Reporter) <-chan parseResult {
	out := make(chan parseResult)

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parserConcurrency)

		for buf, err := range l.AssetStream() {
			if err != nil {
				select {
				case out <- parseResult{err: &catalog.ArchiveCorruptError{URL: repoURL, Err: err}}:
				case <-gctx.Done():
				}
				break
			}

			buf := buf
			g.Go(func() error {
				pa, perr := parseAsset(repoURL, buf)
				if rep != nil {
					rep.AddItemsUnpacked(1)
				}
				select {
				case out <- parseResult{asset: pa, err: perr}:
				case <-gctx.Done():
				}
				return nil
			})
		}

		g.Wait()
	}()

	return out
}

func ingestRelease(
	ctx context.Context, tx *sql.Tx, repoID int64, moduleIDs map[string]int64, r ckan.Release,
	tagBatch, authorBatch, licenseBatch, localeBatch, relBatch *microbatch.Insert,
) (int64, error) {
	moduleID, ok := moduleIDs[r.Identifier]
	if !ok {
		var err error
		moduleID, err = upsertModule(ctx, tx, repoID, r.Identifier)
		if err != nil {
			return 0, err
		}
		moduleIDs[r.Identifier] = moduleID
	}

	metadata := catalog.ReleaseMetadata{
		Comment:             r.Comment,
		DownloadURLs:        []string(r.Download),
		DownloadContentType: r.DownloadContentType,
		Resources: catalog.ModuleResources{
			Homepage:   r.Resources.Homepage,
			Repository: r.Resources.Repository,
			Bugtracker: r.Resources.Bugtracker,
			CI:         r.Resources.CI,
			Spacedock:  r.Resources.Spacedock,
			Curse:      r.Resources.Curse,
			Screenshot: r.Resources.Screenshot,
			Manual:     r.Resources.Manual,
		},
	}
	if r.DownloadHash != nil {
		metadata.DownloadHash = &catalog.DownloadChecksum{Algorithm: r.DownloadHash.Algorithm, Value: r.DownloadHash.Value}
	}
	for _, inst := range r.Install {
		metadata.Install = append(metadata.Install, catalog.InstallDirective{
			File: inst.File, InstallTo: inst.InstallTo, As: inst.As,
			Filter: inst.Filter, FilterRegexp: inst.FilterRegexp,
			Find: inst.Find, FindRegexp: inst.FindRegexp, FindMatchesFiles: inst.FindMatchesFiles,
		})
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, &catalog.StoreFailureError{Op: "marshal release metadata", Err: err}
	}

	gvJSON, err := json.Marshal(r.KSPVersion.ToVersion())
	if err != nil {
		return 0, &catalog.StoreFailureError{Op: "marshal game_version", Err: err}
	}
	gvMin := r.KSPVersionMin.ToVersion()
	if r.KSPVersionMin.IsEmpty() && !r.KSPVersion.IsEmpty() {
		gvMin = r.KSPVersion.ToVersion()
	}
	gvMinJSON, err := json.Marshal(gvMin)
	if err != nil {
		return 0, &catalog.StoreFailureError{Op: "marshal game_version_min", Err: err}
	}

	var releaseID int64
	err = tx.QueryRowContext(ctx, `INSERT INTO module_releases
			(module_id, version, display_name, kind, summary, description, release_status,
			 game_version, game_version_min, game_version_strict,
			 download_size, install_size, release_date, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (module_id, version) DO UPDATE SET
			display_name = excluded.display_name, kind = excluded.kind, summary = excluded.summary,
			description = excluded.description, release_status = excluded.release_status,
			game_version = excluded.game_version, game_version_min = excluded.game_version_min,
			game_version_strict = excluded.game_version_strict, download_size = excluded.download_size,
			install_size = excluded.install_size, release_date = excluded.release_date, metadata = excluded.metadata
		RETURNING release_id`,
		moduleID, r.Version, r.Name, kindToInt(r.Kind), r.Abstract, nullIfEmpty(r.Description), statusToInt(r.ReleaseStatus),
		gvJSON, gvMinJSON, r.KSPVersionStrict, r.DownloadSize, r.InstallSize, r.ReleaseDate, metadataJSON,
	).Scan(&releaseID)
	if err != nil {
		return 0, &catalog.StoreFailureError{Op: fmt.Sprintf("insert release %s@%s", r.Identifier, r.Version), Err: err}
	}

	// Side tables are cleared on replace-into above only implicitly (the
	// release row is updated, not reinserted), so any previously attached
	// children from a same-ingest duplicate must be cleared explicitly. A
	// duplicate can only belong to a module already seen in this ingest, and
	// its children may still sit in the batches, so flush those first.
	if ok {
		for _, b := range []*microbatch.Insert{tagBatch, authorBatch, licenseBatch, localeBatch, relBatch} {
			if err := b.Done(ctx); err != nil {
				return 0, &catalog.StoreFailureError{Op: "flush side-table batch", Err: err}
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM module_tags WHERE release_id = ?`, releaseID); err != nil {
		return 0, &catalog.StoreFailureError{Op: "clear prior tags", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM module_authors WHERE release_id = ?`, releaseID); err != nil {
		return 0, &catalog.StoreFailureError{Op: "clear prior authors", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM module_licenses WHERE release_id = ?`, releaseID); err != nil {
		return 0, &catalog.StoreFailureError{Op: "clear prior licenses", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM module_localizations WHERE release_id = ?`, releaseID); err != nil {
		return 0, &catalog.StoreFailureError{Op: "clear prior locales", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM module_relationship_groups WHERE release_id = ?`, releaseID); err != nil {
		return 0, &catalog.StoreFailureError{Op: "clear prior relationship groups", Err: err}
	}

	for i, tag := range r.Tags {
		if err := tagBatch.Queue(ctx, `INSERT INTO module_tags (release_id, ordinal, tag) VALUES (?, ?, ?)`, releaseID, i, tag); err != nil {
			return 0, &catalog.StoreFailureError{Op: "queue tag", Err: err}
		}
	}
	for i, author := range r.Author {
		if err := authorBatch.Queue(ctx, `INSERT INTO module_authors (release_id, ordinal, author) VALUES (?, ?, ?)`, releaseID, i, author); err != nil {
			return 0, &catalog.StoreFailureError{Op: "queue author", Err: err}
		}
	}
	for _, license := range r.License {
		if err := licenseBatch.Queue(ctx, `INSERT INTO module_licenses (release_id, license) VALUES (?, ?)`, releaseID, license); err != nil {
			return 0, &catalog.StoreFailureError{Op: "queue license", Err: err}
		}
	}
	for _, locale := range r.Locales {
		if err := localeBatch.Queue(ctx, `INSERT INTO module_localizations (release_id, locale) VALUES (?, ?)`, releaseID, locale); err != nil {
			return 0, &catalog.StoreFailureError{Op: "queue locale", Err: err}
		}
	}

	for _, g := range ckan.FlattenRelationships(r) {
		var groupID int64
		err := tx.QueryRowContext(ctx, `INSERT INTO module_relationship_groups
				(release_id, ordinal, rel_type, choice_help_text, suppress_recommendations)
			VALUES (?, ?, ?, ?, ?) RETURNING group_id`,
			releaseID, g.Ordinal, int32(g.RelType), nullIfEmpty(g.ChoiceHelpText), g.SuppressRecommendations,
		).Scan(&groupID)
		if err != nil {
			return 0, &catalog.StoreFailureError{Op: "insert relationship group", Err: err}
		}
		for _, m := range g.Members {
			if err := relBatch.Queue(ctx, `INSERT INTO module_relationships
					(group_id, ordinal, target_name, target_version, target_version_min)
				VALUES (?, ?, ?, ?, ?)`,
				groupID, m.Ordinal, m.TargetName, nullIfEmpty(m.TargetVersion), nullIfEmpty(m.TargetVersionMin)); err != nil {
				return 0, &catalog.StoreFailureError{Op: "queue relationship", Err: err}
			}
		}
	}

	return moduleID, nil
}

func upsertModule(ctx context.Context, tx *sql.Tx, repoID int64, slug string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `INSERT INTO modules (repo_id, module_slug) VALUES (?, ?)
		ON CONFLICT (repo_id, module_slug) DO UPDATE SET module_slug = excluded.module_slug
		RETURNING module_id`, repoID, slug).Scan(&id)
	if err != nil {
		return 0, &catalog.StoreFailureError{Op: fmt.Sprintf("upsert module %s", slug), Err: err}
	}
	return id, nil
}

func ingestBuilds(ctx context.Context, tx *sql.Tx, b ckan.Builds) error {
	for id, gv := range b.BuildVersions {
		data, err := json.Marshal(gv)
		if err != nil {
			return &catalog.StoreFailureError{Op: "marshal build game_version", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO builds (build_id, game_version) VALUES (?, ?)
			ON CONFLICT (build_id) DO UPDATE SET game_version = excluded.game_version`, id, data); err != nil {
			return &catalog.StoreFailureError{Op: "upsert build", Err: err}
		}
	}
	return nil
}

// ingestDownloadCounts upserts a (repo, slug, count) row per entry, merging
// newly-seen module ids into moduleIDs. Per the Open Question decision
// recorded in DESIGN.md, an unknown slug creates a placeholder Module with
// no releases.
func ingestDownloadCounts(ctx context.Context, tx *sql.Tx, repoID int64, moduleIDs map[string]int64, dc ckan.DownloadCounts) ([]int64, error) {
	var ids []int64
	for slug, count := range dc {
		id, ok := moduleIDs[slug]
		if !ok {
			var err error
			id, err = upsertModule(ctx, tx, repoID, slug)
			if err != nil {
				return nil, err
			}
			moduleIDs[slug] = id
		}
		if _, err := tx.ExecContext(ctx, `UPDATE modules SET download_count = ? WHERE module_id = ?`, count, id); err != nil {
			return nil, &catalog.StoreFailureError{Op: fmt.Sprintf("set download_count for %s", slug), Err: err}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func ingestRepositoryRefs(ctx context.Context, tx *sql.Tx, repoID int64, list ckan.RepositoryRefList) error {
	for _, ref := range list.Repositories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO repository_refs (referrer_id, url, name, priority) VALUES (?, ?, ?, ?)
			ON CONFLICT (referrer_id, url) DO UPDATE SET name = excluded.name, priority = excluded.priority`,
			repoID, ref.URI, ref.Name, ref.Priority); err != nil {
			return &catalog.StoreFailureError{Op: "upsert repository ref", Err: err}
		}
	}
	return nil
}

func kindToInt(k ckan.Kind) catalog.ModuleKind {
	switch k {
	case ckan.KindMetapackage:
		return catalog.KindMetapackage
	case ckan.KindDLC:
		return catalog.KindDLC
	default:
		return catalog.KindPackage
	}
}

func statusToInt(s ckan.ReleaseStatus) catalog.ReleaseStatus {
	switch s {
	case ckan.StatusTesting:
		return catalog.StatusTesting
	case ckan.StatusDevelopment:
		return catalog.StatusDevelopment
	default:
		return catalog.StatusStable
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
