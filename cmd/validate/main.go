// Command validate performs standalone integrity checks on one or more
// climate data stores without going through the dodola service layer. Each
// store is checked against the rule set for its pipeline classification, and
// every violation is reported before the command exits.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -store data/tasmax_biascorrected \
//	  -variable tasmax \
//	  -data-type bias_corrected \
//	  -time-period future
//
// Multiple stores of the same classification can be checked in one run by
// repeating -store.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/emileten/dodola/internal/domain"
	"github.com/emileten/dodola/internal/store"
	"github.com/emileten/dodola/internal/validation"
)

// stringList collects repeated flag values.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// phase tracks pass/fail for one store's validation run.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var stores stringList
	flag.Var(&stores, "store", "path to a store to validate (repeatable)")
	variable := flag.String("variable", "", "variable name in the stores")
	dataType := flag.String("data-type", "", "cmip6, bias_corrected or downscaled")
	timePeriod := flag.String("time-period", "", "historical or future")
	flag.Parse()

	if len(stores) == 0 || *variable == "" || *dataType == "" || *timePeriod == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(stores, *variable, *dataType, *timePeriod); code != 0 {
		os.Exit(code)
	}
}

func run(paths []string, variable, dataType, timePeriod string) int {
	dt, err := validation.ParseDataType(dataType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	tp, err := validation.ParseTimePeriod(timePeriod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Printf("=== Validating %d store(s): %s %s/%s ===\n", len(paths), variable, dt, tp)
	fmt.Println()

	phases := make([]*phase, 0, len(paths))
	for _, path := range paths {
		phases = append(phases, validateStore(path, variable, dt, tp))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateStore opens one store and runs the full rule set against it. Every
// violation lands in the phase rather than aborting at the first failure.
func validateStore(path, variable string, dt validation.DataType, tp validation.TimePeriod) *phase {
	p := &phase{name: path}

	backend, err := store.NewLocalBackend(path)
	if err != nil {
		p.errorf("open backend: %v", err)
		return p
	}
	ds, err := store.Open(backend)
	if err != nil {
		p.errorf("open store: %v", err)
		return p
	}

	err = validation.Validate(ds, variable, dt, tp)
	if err == nil {
		return p
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		p.errors = append(p.errors, verr.Violations...)
		return p
	}
	p.errorf("%v", err)
	return p
}
