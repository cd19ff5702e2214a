package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lewisfm/camrete/internal/catalogstore"
)

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("camrete show", flag.ContinueOnError)
	dbPath := fs.String("db", "camrete.db", "path to the catalog database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(fs.Output(), "Usage:\n\tcamrete show [-db path] <slug>")
		return fmt.Errorf("expected exactly one module slug argument")
	}
	slug := fs.Arg(0)

	s, err := catalogstore.Open(ctx, *dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer s.Close()

	rel, err := s.NewestRelease(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no module %q found in any repository", slug)
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "%s %s (%s)\n", rel.DisplayName, rel.Version, rel.Kind)
	fmt.Fprintf(os.Stdout, "  status: %s\n", rel.ReleaseStatus)
	fmt.Fprintf(os.Stdout, "  game version: %s .. %s\n", rel.GameVersionMin, rel.GameVersion)
	if rel.Summary != "" {
		fmt.Fprintf(os.Stdout, "  %s\n", rel.Summary)
	}
	return nil
}
