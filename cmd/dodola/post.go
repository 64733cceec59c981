package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emileten/dodola/internal/postprocess"
	"github.com/emileten/dodola/internal/store"
)

func newWetDayCommand(a *app) *cobra.Command {
	var (
		in       string
		out      string
		variable string
		process  string
	)
	cmd := &cobra.Command{
		Use:   "correct-wetday-frequency",
		Short: "Correct wet-day frequency before or after bias correction",
		RunE: func(cmd *cobra.Command, args []string) error {
			inBackend, outBackend, err := a.inOut(in, out)
			if err != nil {
				return err
			}
			return a.svc.CorrectWetDayFrequency(inBackend, outBackend, variable, process)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "path to store to correct")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write corrected output to")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&process, "process", "p", "", `"pre" jitters trace values, "post" zeroes them`)
	mustMarkRequired(cmd, "input", "out", "variable", "process")
	return cmd
}

func newDTRFloorCommand(a *app) *cobra.Command {
	var (
		in       string
		out      string
		variable string
		floor    float64
	)
	cmd := &cobra.Command{
		Use:   "apply-dtr-floor",
		Short: "Clip diurnal temperature range values below a floor",
		RunE: func(cmd *cobra.Command, args []string) error {
			inBackend, outBackend, err := a.inOut(in, out)
			if err != nil {
				return err
			}
			return a.svc.ApplyDTRFloor(inBackend, outBackend, variable, floor)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "path to store to clip")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write clipped output to")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().Float64VarP(&floor, "floor", "f", postprocess.DefaultDTRFloor, "minimum diurnal temperature range")
	mustMarkRequired(cmd, "input", "out", "variable")
	return cmd
}

func newDTRCeilingCommand(a *app) *cobra.Command {
	var (
		in       string
		out      string
		variable string
		ceiling  float64
	)
	cmd := &cobra.Command{
		Use:   "apply-non-polar-dtr-ceiling",
		Short: "Clip diurnal temperature range values above a ceiling outside polar bands",
		RunE: func(cmd *cobra.Command, args []string) error {
			inBackend, outBackend, err := a.inOut(in, out)
			if err != nil {
				return err
			}
			return a.svc.ApplyNonPolarDTRCeiling(inBackend, outBackend, variable, ceiling)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "path to store to clip")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write clipped output to")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().Float64VarP(&ceiling, "ceiling", "c", postprocess.DefaultDTRCeiling, "maximum non-polar diurnal temperature range")
	mustMarkRequired(cmd, "input", "out", "variable")
	return cmd
}

func newMaxPrecipCommand(a *app) *cobra.Command {
	var (
		in        string
		out       string
		variable  string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "adjust-maximum-precipitation",
		Short: "Clip precipitation values above a maximum",
		RunE: func(cmd *cobra.Command, args []string) error {
			inBackend, outBackend, err := a.inOut(in, out)
			if err != nil {
				return err
			}
			return a.svc.AdjustMaximumPrecipitation(inBackend, outBackend, variable, threshold)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "path to store to clip")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write clipped output to")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", postprocess.DefaultMaxPrecipitation, "maximum precipitation")
	mustMarkRequired(cmd, "input", "out", "variable")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	var (
		in         string
		variable   string
		dataType   string
		timePeriod string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a dataset against the rules for its classification",
		RunE: func(cmd *cobra.Command, args []string) error {
			inBackend, err := a.backend(in)
			if err != nil {
				return err
			}
			return a.svc.Validate(inBackend, variable, dataType, timePeriod)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "path to store to validate")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&dataType, "data-type", "d", "", "cmip6, bias_corrected or downscaled")
	cmd.Flags().StringVarP(&timePeriod, "time-period", "t", "", "historical or future")
	mustMarkRequired(cmd, "input", "variable", "data-type", "time-period")
	return cmd
}

func newGetAttrsCommand(a *app) *cobra.Command {
	var (
		in       string
		variable string
	)
	cmd := &cobra.Command{
		Use:   "get-attrs",
		Short: "Print a dataset's attrs as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			inBackend, err := a.backend(in)
			if err != nil {
				return err
			}
			doc, err := a.svc.GetAttrs(inBackend, variable)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "path to store to inspect")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable whose attrs to print instead of the root attrs")
	mustMarkRequired(cmd, "input")
	return cmd
}

// inOut opens the source and destination backends for a transform command.
func (a *app) inOut(in, out string) (store.Backend, store.Backend, error) {
	inBackend, err := a.backend(in)
	if err != nil {
		return nil, nil, err
	}
	outBackend, err := a.backend(out)
	if err != nil {
		return nil, nil, err
	}
	return inBackend, outBackend, nil
}
