package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) backupCmd() *cobra.Command {
	var out string
	var toS3 bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON backup of every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.rt.Tracker.Export()
			if err != nil {
				return err
			}
			name := a.rt.Tracker.BackupFileName()
			if toS3 {
				archive, err := a.rt.Archive(cmd.Context())
				if err != nil {
					return err
				}
				key, err := archive.Upload(cmd.Context(), name, []byte(text))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", key)
				return nil
			}
			if out == "" {
				out = name
			}
			if out == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(out, []byte(text), 0o600); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file, - for stdout (default ecotrack-backup-<date>.json)")
	cmd.Flags().BoolVar(&toS3, "s3", false, "upload to the configured S3 bucket")
	cmd.MarkFlagsMutuallyExclusive("out", "s3")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "restore [file]",
		Short: "Restore collections from a JSON backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch {
			case key != "" && len(args) == 1:
				return errors.New("pass either a file or --s3, not both")
			case key != "":
				archive, err := a.rt.Archive(cmd.Context())
				if err != nil {
					return err
				}
				if data, err = archive.Download(cmd.Context(), key); err != nil {
					return err
				}
			case len(args) == 1:
				var err error
				if data, err = os.ReadFile(args[0]); err != nil {
					return err
				}
			default:
				return errors.New("a backup file or --s3 key is required")
			}
			payload, err := a.rt.Tracker.Restore(cmd.Context(), string(data))
			if err != nil {
				return err
			}
			ds := payload.Dataset
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d collections: %d meters, %d readings, %d sub-meters, %d sub-readings\n",
				payload.Collections(), len(ds.Meters), len(ds.Readings), len(ds.SubMeters), len(ds.SubReadings))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "s3", "", "restore the named backup from the configured S3 bucket")
	return cmd
}

func (a *app) backupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups in the configured S3 bucket, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.rt.Archive(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := archive.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
