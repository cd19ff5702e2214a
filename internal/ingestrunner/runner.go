// Package ingestrunner implements C13: drive a concurrent ingest of every
// known repository, collecting a per-repository error so one broken
// repository never blocks the rest from refreshing.
package ingestrunner

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/quay/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/download"
	"github.com/lewisfm/camrete/internal/catalogstore"
	"github.com/lewisfm/camrete/progress"
)

// userAgent is sent on every repository fetch.
const userAgent = "camrete/1"

// errmap collects one error per repository name without failing the whole
// run early.
type errmap struct {
	sync.Mutex
	m map[string]error
}

func (e *errmap) add(name string, err error) {
	e.Lock()
	defer e.Unlock()
	e.m[name] = err
}

func (e *errmap) len() int {
	e.Lock()
	defer e.Unlock()
	return len(e.m)
}

func (e *errmap) error() error {
	e.Lock()
	defer e.Unlock()
	var b strings.Builder
	b.WriteString("ingest errors:\n")
	for n, err := range e.m {
		fmt.Fprintf(&b, "\t%s: %v\n", n, err)
	}
	return fmt.Errorf("%s", b.String())
}

// Run fans out a download-then-ingest pass across every repository known to
// s, bounded to concurrency goroutines at a time. rep, if non-nil, receives
// progress updates from every in-flight fetch (its counters are shared and
// therefore not meaningful per-repository once more than one fetch is
// in flight).
//
// Run returns nil if every repository ingested cleanly, otherwise an error
// naming each repository that failed and why.
func Run(ctx context.Context, s *catalogstore.Store, client *http.Client, concurrency int, rep *progress.Reporter) error {
	ctx = zlog.ContextWithValues(ctx, "component", "internal/ingestrunner/Run")

	repos, err := s.Repositories(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	errs := &errmap{m: make(map[string]error)}

	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			ctx := zlog.ContextWithValues(gctx, "repository", repo.Name)
			zlog.Debug(ctx).Msg("start")
			defer zlog.Debug(ctx).Msg("done")

			if err := ingestOne(ctx, s, client, repo, rep); err != nil {
				zlog.Error(ctx).Err(err).Msg("ingest failed")
				errs.add(repo.Name, err)
			}
			return nil
		})
	}

	// The errgroup's own error is never set (ingestOne errors, including
	// ctx cancellation, are routed through errs instead), so Wait returns
	// nil here.
	if err := g.Wait(); err != nil {
		return err
	}

	if errs.len() != 0 {
		return errs.error()
	}
	return nil
}

func ingestOne(ctx context.Context, s *catalogstore.Store, client *http.Client, repo catalog.Repository, rep *progress.Reporter) error {
	result, err := download.Fetch(ctx, client, userAgent, repo.URL, rep)
	if err != nil {
		return err
	}
	defer result.Close()

	return catalogstore.Ingest(ctx, s, repo, result.Loader, result.ETag, rep)
}
