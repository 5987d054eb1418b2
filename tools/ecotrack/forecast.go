package main

import (
	"fmt"

	"github.com/spf13/cobra"

	forecast "ecotrack/internal/forecast/domain"
)

func (a *app) priceCmd() *cobra.Command {
	var kwh float64
	cmd := &cobra.Command{
		Use:   "price <YYYY-MM>",
		Short: "Estimate the average electricity price for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), a.rt.Tracker.EstimateCost(cmd.Context(), args[0], kwh))
		},
	}
	cmd.Flags().Float64Var(&kwh, "kwh", 0, "consumption to price")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <meterID>",
		Short: "Forecast the next months and suggest savings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.rt.Tracker.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
}

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the configured API key can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.rt.Gemini == nil {
				return forecast.ErrNoCredential
			}
			names, err := a.rt.Gemini.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func (a *app) pushInfluxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push-influx <meterID>",
		Short: "Write a meter's history to the configured InfluxDB bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meter, err := a.rt.Tracker.Meter(args[0])
			if err != nil {
				return err
			}
			conn, err := a.rt.Influx(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()
			n, err := conn.Exporter.Push(cmd.Context(), meter, a.rt.Tracker.History(meter.ID))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points\n", n)
			return nil
		},
	}
}
