package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	exitOK       = 0
	exitFatal    = 1
	exitRejected = 2
)

// run executes the command line and maps the outcome to an exit status.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{stderr: stderr}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	if closeErr := a.close(); closeErr != nil {
		_, _ = fmt.Fprintln(stderr, "librarian: shutdown:", closeErr)
	}

	switch {
	case err == nil:
		return exitOK
	case lending.IsRejection(err):
		if writeErr := writeErrorResponse(stdout, err); writeErr != nil {
			_, _ = fmt.Fprintln(stderr, "librarian:", writeErr)
		}

		return exitRejected
	default:
		_, _ = fmt.Fprintln(stderr, "librarian:", err)

		return exitFatal
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Lend, return and renew library books with transactional inventory consistency",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.engine, "engine", enginePostgres, "storage engine: postgres or memory")

	root.AddCommand(
		newMigrateCommand(a),
		newBookCommand(a),
		newMemberCommand(a),
		newLoanCommand(a),
		newLoansCommand(a),
	)

	return root
}
