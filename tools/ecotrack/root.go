package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ecotrack/internal/bootstrap"
)

type builder func(ctx context.Context) (*bootstrap.Runtime, error)

// app carries the runtime shared by every subcommand.
type app struct {
	build builder
	rt    *bootstrap.Runtime
}

func newRootCmd(build builder) *cobra.Command {
	a := &app{build: build}
	root := &cobra.Command{
		Use:          "ecotrack",
		Short:        "Personal energy tracker: imports, reports, backups and forecasts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.build(cmd.Context())
			if err != nil {
				return err
			}
			a.rt = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.rt == nil {
				return nil
			}
			err := a.rt.Close()
			a.rt = nil
			return err
		},
	}
	root.AddCommand(
		a.metersCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.reportCmd(),
		a.statsCmd(),
		a.backupCmd(),
		a.restoreCmd(),
		a.backupsCmd(),
		a.priceCmd(),
		a.analyzeCmd(),
		a.pushInfluxCmd(),
		a.modelsCmd(),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
