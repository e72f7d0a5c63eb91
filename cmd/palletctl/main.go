package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"palletvox.app/internal/config"
	"palletvox.app/internal/grid"
	"palletvox.app/internal/persistence/store"
)

// env is what every subcommand runs against.
type env struct {
	st       *store.Store
	limits   grid.Limits
	editsDir string
	out      io.Writer
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"list":    listCmd,
	"create":  createCmd,
	"show":    showCmd,
	"rename":  renameCmd,
	"delete":  deleteCmd,
	"groups":  groupsCmd,
	"assign":  assignCmd,
	"export":  exportCmd,
	"import":  importCmd,
	"history": historyCmd,
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: palletctl [-config tuning.yaml] [-db path] <command> [flags]")
	fmt.Fprintln(w, "commands:")
	for _, n := range names {
		fmt.Fprintln(w, "  "+n)
	}
}

func main() {
	tuningPath := flag.String("config", "./configs/tuning.yaml", "path to tuning.yaml")
	dbPath := flag.String("db", "", "sqlite path (overrides config)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown command:", args[0])
		usage(os.Stderr)
		os.Exit(2)
	}

	tune, err := config.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		tune.Storage.DBPath = *dbPath
	}
	st, err := store.Open(tune.Storage.DBPath, tune.Limits)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}

	e := &env{st: st, limits: tune.Limits, editsDir: tune.Storage.EditsDir, out: os.Stdout}
	err = cmd(context.Background(), e, args[1:])
	_ = st.Close()
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
