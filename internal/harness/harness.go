package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/iocscope/iocscope/internal/builder"
	"github.com/iocscope/iocscope/internal/dbfile"
	"github.com/iocscope/iocscope/internal/fleet"
	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/macro"
	"github.com/iocscope/iocscope/internal/model"
	"github.com/iocscope/iocscope/internal/testutil"
)

// Result holds one scenario execution: the aggregated graph and every
// per-instance outcome in scenario order.
type Result struct {
	Graph   *graph.Graph
	Results []fleet.Result
}

// Run interprets a scenario's fleet against its inline files and returns
// the aggregated graph. Instance failures are captured per instance, not
// returned as an error; Run itself only fails on scenario-level problems.
func Run(scenario *Scenario) (*Result, error) {
	files := make(testutil.MemFiles, len(scenario.Files))
	for path, content := range scenario.Files {
		files[path] = content
	}

	parsers := builder.NewParserRegistry()
	dbfile.Register(parsers)
	loader := fleet.NewLoader(fleet.LoaderOptions{
		Files:   files,
		Parsers: parsers,
		Macros:  macro.Options{Strict: scenario.Strict, SuppressWarnings: true},
		Logger:  testutil.DiscardLogger(),
	})

	cfg := &fleet.Config{Name: scenario.Name}
	for _, inst := range scenario.Instances {
		workdir := inst.WorkDir
		if workdir == "" {
			workdir = "."
		}
		cfg.Instances = append(cfg.Instances, fleet.InstanceConfig{
			ID:      inst.ID,
			Script:  inst.Script,
			WorkDir: workdir,
			Macros:  inst.Macros,
		})
	}

	g := graph.New()
	results, err := loader.LoadAll(context.Background(), cfg, g)
	if err != nil {
		return nil, fmt.Errorf("harness: scenario %s: %w", scenario.Name, err)
	}
	return &Result{Graph: g, Results: results}, nil
}

// Check validates a result against the scenario's declared expectations.
// It returns one error per failed expectation, empty when all hold.
func Check(scenario *Scenario, result *Result) []error {
	var errs []error

	for i, inst := range scenario.Instances {
		r := result.Results[i]
		switch {
		case inst.FailWith != "" && r.Err == nil:
			errs = append(errs, fmt.Errorf("instance %s: expected failure containing %q, got success", inst.ID, inst.FailWith))
		case inst.FailWith != "" && !strings.Contains(r.Err.Error(), inst.FailWith):
			errs = append(errs, fmt.Errorf("instance %s: error %q does not contain %q", inst.ID, r.Err, inst.FailWith))
		case inst.FailWith == "" && r.Err != nil:
			errs = append(errs, fmt.Errorf("instance %s: unexpected failure: %w", inst.ID, r.Err))
		}
	}
	if scenario.Expect == nil {
		return errs
	}

	for _, re := range scenario.Expect.Records {
		key, err := parseKey(re.Key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rec, ok := result.Graph.Get(key)
		if !ok {
			errs = append(errs, fmt.Errorf("record %s: not found", re.Key))
			continue
		}
		if re.Type != "" && rec.Type != re.Type {
			errs = append(errs, fmt.Errorf("record %s: type %s, want %s", re.Key, rec.Type, re.Type))
		}
	}

	for _, le := range scenario.Expect.Resolved {
		if err := checkResolved(result.Graph, le); err != nil {
			errs = append(errs, err)
		}
	}
	for _, le := range scenario.Expect.Unresolved {
		if err := checkUnresolved(result.Graph, le); err != nil {
			errs = append(errs, err)
		}
	}

	codes := make(map[string]bool)
	for _, w := range result.Graph.Warnings() {
		codes[string(w.Code)] = true
	}
	for _, w := range result.Graph.AnalyzeCycles() {
		codes[string(w.Code)] = true
	}
	for _, want := range scenario.Expect.Warnings {
		if !codes[want] {
			errs = append(errs, fmt.Errorf("warning %s: not raised", want))
		}
	}
	return errs
}

func checkResolved(g *graph.Graph, le LinkExpect) error {
	source, err := parseKey(le.From)
	if err != nil {
		return err
	}
	target, err := parseKey(le.To)
	if err != nil {
		return err
	}
	for _, e := range g.Outbound(source) {
		if e.Field == le.Field && e.Resolved && e.Target == target {
			return nil
		}
	}
	return fmt.Errorf("link %s.%s -> %s: not resolved", le.From, le.Field, le.To)
}

func checkUnresolved(g *graph.Graph, le LinkExpect) error {
	source, err := parseKey(le.From)
	if err != nil {
		return err
	}
	for _, e := range g.Unresolved() {
		if e.Source == source && e.Field == le.Field && e.TargetName == le.To {
			return nil
		}
	}
	return fmt.Errorf("link %s.%s -> %q: not among unresolved", le.From, le.Field, le.To)
}

func parseKey(s string) (model.RecordKey, error) {
	inst, name, ok := strings.Cut(s, "/")
	if !ok || inst == "" || name == "" {
		return model.RecordKey{}, fmt.Errorf("record key %q: want instance/name", s)
	}
	return model.RecordKey{Instance: inst, Name: name}, nil
}
