package main

import (
	"errors"
	"fmt"

	"pathways-server/internal/content"

	"github.com/spf13/cobra"
)

var errInvalidContent = errors.New("content has errors")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check a content directory (the embedded pack when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(cmd, dir)
		},
	}
}

func runValidate(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()
	lib, issues, err := content.Load(content.Source(dir))
	for _, issue := range issues {
		fmt.Fprintln(out, issue.String())
	}
	if err != nil {
		if len(content.Errors(issues)) > 0 {
			fmt.Fprintf(out, "%d error(s)\n", len(content.Errors(issues)))
			return errInvalidContent
		}
		return err
	}
	fmt.Fprintf(out, "ok: %d characters, %d achievements, %d arcs, %d gifts, revision %s\n",
		len(lib.Characters()), len(lib.Achievements()), len(lib.Arcs()), len(lib.Gifts()), lib.Revision())
	return nil
}
