// Command pathctl - утилиты для авторов контента и эксплуатации:
// проверка пакета, прогон сценария без сервера, миграции и dev-токены.
package main

import (
	"fmt"
	"os"

	"pathways-server/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	verbose      bool
	log          *zap.Logger
	openMigrator migratorOpener
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&rootOptions{log: zap.NewNop(), openMigrator: openMigrator})
}

func newRootCmdWithOptions(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "pathctl",
		Short:         "Content and operations tool for the pathways server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logger.NewCLI(opts.verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newValidateCmd(opts),
		newSimulateCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(opts),
	)
	return root
}
