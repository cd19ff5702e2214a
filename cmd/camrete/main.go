// Command camrete downloads and ingests CKAN-format mod repositories into
// a local catalog database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/quay/zlog"
)

type subcmd func(ctx context.Context, args []string) error

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("camrete", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nSubcommands\n\n")
		fmt.Fprintln(out, "update\n\trefresh every known repository")
		fmt.Fprintln(out, "show\n\tprint the newest release of a module")
	}

	// Subcommand flags are parsed by the subcommand itself; only the
	// global flags and the subcommand name are parsed here.
	args := os.Args[1:]
	var globalArgs, rest []string
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			globalArgs = args[:i]
			rest = args[i:]
			break
		}
	}
	if rest == nil {
		globalArgs = args
	}
	if err := fs.Parse(globalArgs); err != nil {
		return 99
	}

	level, err := zerolog.ParseLevel(strings.ToLower(*logLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
		With().Timestamp().Logger().Level(level)
	zlog.Set(&log)
	ctx = log.WithContext(ctx)

	if len(rest) == 0 {
		fs.Usage()
		return 99
	}

	var cmd subcmd
	switch n := rest[0]; n {
	case "update":
		cmd = runUpdate
	case "show":
		cmd = runShow
	default:
		fs.Usage()
		fmt.Fprintf(os.Stderr, "\nunknown subcommand %q\n", n)
		return 99
	}

	if err := cmd(ctx, rest[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
