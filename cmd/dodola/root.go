package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	httpadapter "github.com/emileten/dodola/internal/adapter/http"
	"github.com/emileten/dodola/internal/config"
	"github.com/emileten/dodola/internal/observability"
	"github.com/emileten/dodola/internal/service"
	"github.com/emileten/dodola/internal/store"
)

// app carries the shared wiring every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	svc     *service.Service
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var debug bool

	root := &cobra.Command{
		Use:           "dodola",
		Short:         "GCM bias-correction and downscaling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if debug {
				cfg.LogLevel = "debug"
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg)
			a.metrics = observability.NewMetrics()
			a.svc = service.New(a.logger, a.metrics, cfg.Workers, cfg.Seed)

			if cfg.MetricsAddr != "" {
				srv := httpadapter.NewServer(cfg.MetricsAddr, a.logger)
				go func() {
					if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("metrics server error", "error", err)
					}
				}()
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newPrimeQDMCommand(a),
		newTrainQDMCommand(a),
		newApplyQDMCommand(a),
		newPrimeQPLADCommand(a),
		newTrainQPLADCommand(a),
		newApplyQPLADCommand(a),
		newWetDayCommand(a),
		newDTRFloorCommand(a),
		newDTRCeilingCommand(a),
		newMaxPrecipCommand(a),
		newValidateCommand(a),
		newGetAttrsCommand(a),
	)
	return root
}

// backend opens a local store backend, resolving relative paths against the
// configured data root.
func (a *app) backend(path string) (store.Backend, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.DataRoot, path)
	}
	return store.NewLocalBackend(path)
}

// parseYears splits a "first,last" inclusive year range.
func parseYears(s string) (first, last int, err error) {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("years %q: want firstyear,lastyear", s)
	}
	first, err1 := strconv.Atoi(lo)
	last, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil || last < first {
		return 0, 0, fmt.Errorf("years %q: want firstyear,lastyear", s)
	}
	return first, last, nil
}

// readRootAttrs loads the optional root attrs JSON file.
func readRootAttrs(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}
