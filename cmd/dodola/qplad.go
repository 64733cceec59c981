package main

import (
	"github.com/spf13/cobra"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/service"
)

func newPrimeQPLADCommand(a *app) *cobra.Command {
	var (
		simulation string
		years      string
		variable   string
		out        string
		regionDims []string
		rootAttrs  string
		newAttrs   []string
	)
	cmd := &cobra.Command{
		Use:   "prime-qplad-output",
		Short: "Prime a fine-grid store for regionally-written QPLAD output",
		RunE: func(cmd *cobra.Command, args []string) error {
			first, last, err := parseYears(years)
			if err != nil {
				return err
			}
			req, err := a.primeRequest(simulation, variable, regionDims, rootAttrs, newAttrs)
			if err != nil {
				return err
			}
			req.FirstYear, req.LastYear = first, last
			outBackend, err := a.backend(out)
			if err != nil {
				return err
			}
			_, err = a.svc.PrimeQPLADOutput(outBackend, req)
			return err
		},
	}
	cmd.Flags().StringVarP(&simulation, "simulation", "s", "", "path to fine-grid store supplying the output grid")
	cmd.Flags().StringVar(&years, "years", "", "firstyear,lastyear inclusive output range")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write the primed store to")
	cmd.Flags().StringSliceVar(&regionDims, "region-dims", nil, "dimensions regions will be keyed on when writing")
	cmd.Flags().StringVar(&rootAttrs, "root-attrs-json-file", "", "JSON file to use as root attrs for the output")
	cmd.Flags().StringArrayVar(&newAttrs, "new-attrs", nil, "key=value entry to merge into the output root attrs")
	mustMarkRequired(cmd, "simulation", "years", "variable", "out", "region-dims")
	return cmd
}

func newTrainQPLADCommand(a *app) *cobra.Command {
	var (
		coarseReference string
		fineReference   string
		variable        string
		kind            string
		out             string
		selSlices       []string
		iselSlices      []string
	)
	cmd := &cobra.Command{
		Use:   "train-qplad",
		Short: "Train a quantile-preserving localized analogs downscaling (QPLAD) model",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.ParseKind(kind)
			if err != nil {
				return err
			}
			sel, isel, err := parseSlices(selSlices, iselSlices)
			if err != nil {
				return err
			}
			coarseBackend, fineBackend, outBackend, err := a.backends(coarseReference, fineReference, out)
			if err != nil {
				return err
			}
			return a.svc.TrainQPLAD(coarseBackend, fineBackend, outBackend, service.TrainQPLADRequest{
				Variable:   variable,
				Kind:       k,
				SelSlices:  sel,
				ISelSlices: isel,
			})
		},
	}
	cmd.Flags().StringVar(&coarseReference, "coarse-reference", "", "path to coarse-resolution reference store")
	cmd.Flags().StringVar(&fineReference, "fine-reference", "", "path to fine-resolution reference store")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "additive or multiplicative")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write the trained model to")
	cmd.Flags().StringArrayVar(&selSlices, "selslice", nil, "dim=start,stop label slice applied before training")
	cmd.Flags().StringArrayVar(&iselSlices, "iselslice", nil, "dim=start,stop index slice applied before training")
	mustMarkRequired(cmd, "coarse-reference", "fine-reference", "variable", "kind", "out")
	return cmd
}

func newApplyQPLADCommand(a *app) *cobra.Command {
	var (
		simulation string
		model      string
		variable   string
		out        string
		selSlices  []string
		iselSlices []string
		outRegion  []string
		wetday     bool
		rootAttrs  string
		newAttrs   []string
	)
	cmd := &cobra.Command{
		Use:   "apply-qplad",
		Short: "Downscale a bias-corrected simulation with QPLAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, isel, err := parseSlices(selSlices, iselSlices)
			if err != nil {
				return err
			}
			region, err := parseRegion(outRegion)
			if err != nil {
				return err
			}
			attrs, err := domain.ParseAttrPairs(newAttrs)
			if err != nil {
				return err
			}
			rootJSON, err := readRootAttrs(rootAttrs)
			if err != nil {
				return err
			}
			simBackend, modelBackend, outBackend, err := a.backends(simulation, model, out)
			if err != nil {
				return err
			}
			return a.svc.ApplyQPLAD(simBackend, modelBackend, outBackend, service.ApplyQPLADRequest{
				Variable:             variable,
				SelSlices:            sel,
				ISelSlices:           isel,
				WetDayPostCorrection: wetday,
				OutRegion:            region,
				RootAttrsJSON:        rootJSON,
				NewAttrs:             attrs,
			})
		},
	}
	cmd.Flags().StringVarP(&simulation, "simulation", "s", "", "path to bias-corrected simulation store")
	cmd.Flags().StringVarP(&model, "qplad", "d", "", "path to trained QPLAD model store")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write downscaled output to")
	cmd.Flags().StringArrayVar(&selSlices, "selslice", nil, "dim=start,stop label slice applied before downscaling")
	cmd.Flags().StringArrayVar(&iselSlices, "iselslice", nil, "dim=start,stop index slice applied before downscaling")
	cmd.Flags().StringArrayVar(&outRegion, "out-region", nil, "dim=start,stop index region of an existing primed store to write to")
	cmd.Flags().BoolVar(&wetday, "wetday-post-correction", false, "restore the fine reference dry-day fraction after adjustment")
	cmd.Flags().StringVar(&rootAttrs, "root-attrs-json-file", "", "JSON file to use as root attrs for the output")
	cmd.Flags().StringArrayVar(&newAttrs, "new-attrs", nil, "key=value entry to merge into the output root attrs")
	mustMarkRequired(cmd, "simulation", "qplad", "variable", "out")
	return cmd
}
