package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/lewisfm/camrete/internal/catalogstore"
	"github.com/lewisfm/camrete/internal/ingestrunner"
	"github.com/lewisfm/camrete/progress"
)

func runUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("camrete update", flag.ContinueOnError)
	dbPath := fs.String("db", "camrete.db", "path to the catalog database")
	concurrency := fs.Int("concurrency", 4, "number of repositories to ingest at once")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := catalogstore.Open(ctx, *dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer s.Close()

	rep := progress.New(func(snap progress.Snapshot) {
		switch {
		case snap.IsComputingDerivedData:
			fmt.Fprintf(os.Stderr, "\rrecomputing derived data...          ")
		case snap.HasBytesExpected:
			fmt.Fprintf(os.Stderr, "\r%d/%d bytes, %d items unpacked   ", snap.BytesDownloaded, snap.BytesExpected, snap.ItemsUnpacked)
		default:
			fmt.Fprintf(os.Stderr, "\r%d bytes, %d items unpacked   ", snap.BytesDownloaded, snap.ItemsUnpacked)
		}
	})

	err = ingestrunner.Run(ctx, s, http.DefaultClient, *concurrency, rep)
	fmt.Fprintln(os.Stderr)
	return err
}
