package main

import (
	"github.com/spf13/cobra"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/service"
	"github.com/emileten/dodola/internal/store"
)

func newPrimeQDMCommand(a *app) *cobra.Command {
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
		Use:   "prime-qdm-output",
		Short: "Prime a store for regionally-written QDM output",
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
			_, err = a.svc.PrimeQDMOutput(outBackend, req)
			return err
		},
	}
	cmd.Flags().StringVarP(&simulation, "simulation", "s", "", "path to simulation store supplying the grid")
	cmd.Flags().StringVar(&years, "years", "", "firstyear,lastyear inclusive output range")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write the primed store to")
	cmd.Flags().StringSliceVar(&regionDims, "region-dims", nil, "dimensions regions will be keyed on when writing")
	cmd.Flags().StringVar(&rootAttrs, "root-attrs-json-file", "", "JSON file to use as root attrs for the output")
	cmd.Flags().StringArrayVar(&newAttrs, "new-attrs", nil, "key=value entry to merge into the output root attrs")
	mustMarkRequired(cmd, "simulation", "years", "variable", "out", "region-dims")
	return cmd
}

func newTrainQDMCommand(a *app) *cobra.Command {
	var (
		historical string
		reference  string
		variable   string
		kind       string
		out        string
		selSlices  []string
		iselSlices []string
	)
	cmd := &cobra.Command{
		Use:   "train-qdm",
		Short: "Train a quantile delta mapping (QDM) model",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.ParseKind(kind)
			if err != nil {
				return err
			}
			sel, isel, err := parseSlices(selSlices, iselSlices)
			if err != nil {
				return err
			}
			histBackend, refBackend, outBackend, err := a.backends(historical, reference, out)
			if err != nil {
				return err
			}
			return a.svc.TrainQDM(histBackend, refBackend, outBackend, service.TrainQDMRequest{
				Variable:   variable,
				Kind:       k,
				SelSlices:  sel,
				ISelSlices: isel,
			})
		},
	}
	cmd.Flags().StringVar(&historical, "historical", "", "path to historical simulation store")
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "path to reference data store")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "additive or multiplicative")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write the trained model to")
	cmd.Flags().StringArrayVar(&selSlices, "selslice", nil, "dim=start,stop label slice applied before training")
	cmd.Flags().StringArrayVar(&iselSlices, "iselslice", nil, "dim=start,stop index slice applied before training")
	mustMarkRequired(cmd, "historical", "reference", "variable", "kind", "out")
	return cmd
}

func newApplyQDMCommand(a *app) *cobra.Command {
	var (
		simulation string
		model      string
		years      string
		variable   string
		out        string
		selSlices  []string
		iselSlices []string
		outRegion  []string
		rootAttrs  string
		newAttrs   []string
	)
	cmd := &cobra.Command{
		Use:   "apply-qdm",
		Short: "Adjust simulation years with QDM bias correction",
		RunE: func(cmd *cobra.Command, args []string) error {
			first, last, err := parseYears(years)
			if err != nil {
				return err
			}
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
			return a.svc.ApplyQDM(simBackend, modelBackend, outBackend, service.ApplyQDMRequest{
				Variable:      variable,
				FirstYear:     first,
				LastYear:      last,
				SelSlices:     sel,
				ISelSlices:    isel,
				OutRegion:     region,
				RootAttrsJSON: rootJSON,
				NewAttrs:      attrs,
			})
		},
	}
	cmd.Flags().StringVarP(&simulation, "simulation", "s", "", "path to simulation store to adjust")
	cmd.Flags().StringVarP(&model, "qdm", "q", "", "path to trained QDM model store")
	cmd.Flags().StringVar(&years, "years", "", "firstyear,lastyear inclusive range to adjust")
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable name in data stores")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path to write adjusted output to")
	cmd.Flags().StringArrayVar(&selSlices, "selslice", nil, "dim=start,stop label slice applied before adjusting")
	cmd.Flags().StringArrayVar(&iselSlices, "iselslice", nil, "dim=start,stop index slice applied before adjusting")
	cmd.Flags().StringArrayVar(&outRegion, "out-region", nil, "dim=start,stop index region of an existing primed store to write to")
	cmd.Flags().StringVar(&rootAttrs, "root-attrs-json-file", "", "JSON file to use as root attrs for the output")
	cmd.Flags().StringArrayVar(&newAttrs, "new-attrs", nil, "key=value entry to merge into the output root attrs")
	mustMarkRequired(cmd, "simulation", "qdm", "years", "variable", "out")
	return cmd
}

// primeRequest builds the shared parts of a prime request from CLI inputs.
func (a *app) primeRequest(template, variable string, regionDims []string, rootAttrs string, newAttrs []string) (service.PrimeRequest, error) {
	attrs, err := domain.ParseAttrPairs(newAttrs)
	if err != nil {
		return service.PrimeRequest{}, err
	}
	rootJSON, err := readRootAttrs(rootAttrs)
	if err != nil {
		return service.PrimeRequest{}, err
	}
	tmplBackend, err := a.backend(template)
	if err != nil {
		return service.PrimeRequest{}, err
	}
	tmpl, err := store.Open(tmplBackend)
	if err != nil {
		return service.PrimeRequest{}, err
	}
	return service.PrimeRequest{
		Template:      tmpl,
		Variable:      variable,
		RegionDims:    regionDims,
		RootAttrsJSON: rootJSON,
		NewAttrs:      attrs,
	}, nil
}

// backends opens three store backends in one go.
func (a *app) backends(p1, p2, p3 string) (store.Backend, store.Backend, store.Backend, error) {
	b1, err := a.backend(p1)
	if err != nil {
		return nil, nil, nil, err
	}
	b2, err := a.backend(p2)
	if err != nil {
		return nil, nil, nil, err
	}
	b3, err := a.backend(p3)
	if err != nil {
		return nil, nil, nil, err
	}
	return b1, b2, b3, nil
}

func parseSlices(selSpecs, iselSpecs []string) ([]domain.LabelSlice, []domain.IndexSlice, error) {
	sel, err := domain.ParseLabelSlices(selSpecs)
	if err != nil {
		return nil, nil, err
	}
	isel, err := domain.ParseIndexSlices(iselSpecs)
	if err != nil {
		return nil, nil, err
	}
	return sel, isel, nil
}

func parseRegion(specs []string) ([]domain.IndexSlice, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	return domain.ParseIndexSlices(specs)
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}
