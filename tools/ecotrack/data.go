package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ecotrack/internal/energy/interfaces/report"
	"ecotrack/internal/energy/stats"
)

func (a *app) metersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meters",
		Short: "List meters and sub-meters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tID\tNAME\tREADINGS")
			for _, m := range a.rt.Tracker.Meters() {
				fmt.Fprintf(tw, "meter\t%s\t%s\t%d\n", m.ID, m.Name, len(a.rt.Tracker.History(m.ID)))
			}
			for _, s := range a.rt.Tracker.SubMeters() {
				fmt.Fprintf(tw, "sub-meter\t%s\t%s\t%d\n", s.ID, s.Name, len(a.rt.Tracker.SubHistory(s.ID)))
			}
			return tw.Flush()
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <meterID> <file>",
		Short: "Import readings from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			res, err := a.rt.Tracker.ImportFile(cmd.Context(), args[0], filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d readings, discarded %d rows\n", res.Imported, res.Discarded)
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <meterID> [out.xlsx]",
		Short: "Export a meter's history as a spreadsheet",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meter, err := a.rt.Tracker.Meter(args[0])
			if err != nil {
				return err
			}
			data, err := report.BuildReadingsXLSX(a.rt.Tracker.History(meter.ID))
			if err != nil {
				return err
			}
			out := report.ExportFileName(meter.Name, time.Now().UTC())
			if len(args) == 2 {
				out = args[1]
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func (a *app) reportCmd() *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "report <meterID> [out.pdf]",
		Short: "Render a PDF summary for a meter",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meter, err := a.rt.Tracker.Meter(args[0])
			if err != nil {
				return err
			}
			rng, err := rf.resolve()
			if err != nil {
				return err
			}
			points, err := a.rt.Tracker.Series(meter.ID, rng)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			data, err := report.BuildSummaryPDF(meter.Name, stats.Summarize(points), points, now)
			if err != nil {
				return err
			}
			out := report.PDFFileName(meter.Name, now)
			if len(args) == 2 {
				out = args[1]
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var rf rangeFlags
	var series bool
	cmd := &cobra.Command{
		Use:   "stats <meterID|subMeterID>",
		Short: "Print the summary of a meter or sub-meter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := rf.resolve()
			if err != nil {
				return err
			}
			points, err := a.rt.Tracker.Series(args[0], rng)
			if err != nil {
				return err
			}
			if !series {
				return printJSON(cmd.OutOrStdout(), stats.Summarize(points))
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "DATE\tGRID\tSOLAR\tREAL\tCOST\t€/KWH\tSAVINGS %\t")
			for _, p := range points {
				d := stats.Derive(p)
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.4f\t%.1f\t\n",
					p.Date, p.Kwh, p.SolarKwh, d.RealConsumption, p.Cost, d.PricePerKwh, d.SavingsPercent)
			}
			return tw.Flush()
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&series, "series", false, "print the monthly series instead of the summary")
	return cmd
}

// rangeFlags selects a date range by explicit bounds or by preset name.
type rangeFlags struct {
	start  string
	end    string
	preset string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first month, YYYY-MM")
	cmd.Flags().StringVar(&f.end, "end", "", "last month, YYYY-MM")
	cmd.Flags().StringVar(&f.preset, "preset", "all", "range preset: all, 12m or a year")
	cmd.MarkFlagsMutuallyExclusive("start", "preset")
	cmd.MarkFlagsMutuallyExclusive("end", "preset")
}

func (f *rangeFlags) resolve() (stats.Range, error) {
	if f.start != "" || f.end != "" {
		return stats.Range{Start: f.start, End: f.end}, nil
	}
	rng, ok := stats.Preset(f.preset, time.Now().UTC())
	if !ok {
		return stats.Range{}, fmt.Errorf("unknown preset %q", f.preset)
	}
	return rng, nil
}
