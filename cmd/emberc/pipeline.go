package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"forge.dev/emberc/internal/buildlog"
	"forge.dev/emberc/internal/check"
	"forge.dev/emberc/internal/codegen"
	"forge.dev/emberc/internal/config"
	"forge.dev/emberc/internal/consteval"
	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/dropexpand"
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/mirlower"
	"forge.dev/emberc/internal/program"
	"forge.dev/emberc/internal/split"
	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/symbols"
	"forge.dev/emberc/internal/types"
)

// BuildResult is what a pipeline run reports back to the CLI layer.
type BuildResult struct {
	Objects   []codegen.Result
	Diags     []diagnostics.Diagnostic
	Graph     *symbols.Graph
	Constants consteval.Table
}

// runBuild wires C1 through C7 in the order SPEC_FULL.md's module map
// names them: constant evaluation, checking, MIR lowering, drop/reference
// expansion, module splitting against the object cache, then parallel
// native emission. Once checking has reported an error, no further method
// is lowered, and the run stops before splitting and emission: runBuild
// returns the diagnostics in BuildResult.Diags with a nil error, and the
// caller reports the failed build (spec.md §7: diagnostics vs. infra errors
// are a deliberate two-tier split).
func runBuild(ctx context.Context, cfg *config.Config, log *buildlog.Logger, prog *program.Program) (*BuildResult, error) {
	sink := diagnostics.NewSink()
	db := prog.DB

	constEntry := log.Phase("consteval", "*")
	var constTable consteval.Table
	buildlog.Timed(constEntry, "evaluate-constants", func() error {
		constTable = consteval.New(prog.Constants, prog.ConstantNames, sink).Run()
		return nil
	})

	methods := make(map[types.MethodId]*mir.Method, len(prog.Units))
	for _, id := range sortedMethodIDs(prog.Units) {
		unit := prog.Units[id]
		moduleName := ""
		if m := db.Module(unit.Decl.Module); m != nil {
			moduleName = string(m.Name)
		}

		checker := check.NewChecker(db, sink, moduleName)
		buildlog.Timed(log.Phase("check", moduleName), fmt.Sprintf("check-method-%d", id), func() error {
			checker.CheckMethod(unit.Decl, unit.ArgVars, unit.Body)
			return nil
		})
		if sink.HasErrors() {
			continue
		}

		var method *mir.Method
		buildlog.Timed(log.Phase("mirlower", moduleName), fmt.Sprintf("lower-method-%d", id), func() error {
			method = mirlower.LowerMethod(db, unit.Decl, unit.ArgVars, unit.Body)
			return nil
		})
		if method == nil {
			continue
		}

		buildlog.Timed(log.Phase("dropexpand", moduleName), fmt.Sprintf("expand-method-%d", id), func() error {
			dropexpand.Run(method, db)
			return nil
		})

		methods[id] = method
	}

	if sink.HasErrors() {
		return &BuildResult{Diags: sink.All(), Constants: constTable}, nil
	}

	graph := symbols.NewGraph()
	for from, deps := range prog.Dependencies {
		for _, to := range deps {
			graph.AddDependency(from, to)
		}
	}

	modules := buildModules(db, prog.ModuleIDs)

	// C5 module splitting: every generic class specialized somewhere in a
	// module gets its own synthesized MIR module, so a symbol a linker sees
	// names exactly one specialization (spec.md §8 invariant 4).
	var splitModules []*mir.Module
	for _, mod := range modules {
		specs := collectSpecializations(db, mod)
		if len(specs) == 0 {
			continue
		}
		splitModules = append(splitModules, split.Split(mod, classNameOf(db), specs)...)
	}
	modules = append(modules, splitModules...)

	if prog.Entry != nil {
		setupOrder := make([]types.ModuleId, 0, len(modules))
		for _, mod := range modules {
			setupOrder = append(setupOrder, mod.Id)
		}

		mod, entryMethod := codegen.BuildEntryModule(codegen.EntryConfig{
			MainModule:  prog.Entry.MainModule,
			MainClass:   prog.Entry.MainClass,
			StartMethod: prog.Entry.StartMethod,
			EntrySymbol: prog.Entry.EntrySymbol,
			SetupOrder:  setupOrder,
		})
		modules = append(modules, mod)
		methods[entryMethod.Id] = entryMethod
	}

	versionToken := split.VersionToken(cfg.Version, cfg.CompiledAt, cfg.CompileTimeVars)
	cache, err := split.NewCache(cfg.CacheDir, 256, cfg.DisableIncremental || cfg.DumpVerify, versionToken)
	if err != nil {
		return nil, errors.Wrap(err, "opening object cache")
	}

	target, err := codegen.NewTarget(cfg.Target.Triple, cfg.Target.CPU)
	if err != nil {
		return nil, errors.Wrap(err, "initializing codegen target")
	}

	// Hash every module up front, mark it (and everything that depends on
	// it, transitively) changed in the dependency graph when its content
	// differs from what the cache last saw, then evict the cache entry of
	// every module the graph marks changed. This covers modules changed
	// only through propagation: their own hash may be unchanged, but a
	// module they depend on no longer is (spec.md §4.5's fourth condition
	// and dependency-graph propagation).
	moduleHashes := make(map[types.ModuleId]split.Hash, len(modules))
	for _, mod := range modules {
		h, changed := split.Changed(cache, mod, methods)
		moduleHashes[mod.Id] = h
		if changed {
			graph.MarkChanged(mod.Id)
		}
	}
	for _, id := range graph.ChangedSet() {
		if h, ok := moduleHashes[id]; ok {
			cache.Invalidate(h)
		}
	}

	jobs := make([]codegen.Job, 0, len(modules))
	for _, mod := range modules {
		jobs = append(jobs, codegen.Job{Module: mod, MethodOrder: mod.Methods})
	}

	var results []codegen.Result
	emitErr := buildlog.Timed(log.Phase("codegen", "*"), "emit-all", func() error {
		r, err := codegen.EmitAll(ctx, target, cache, methods, jobs, cfg.Workers)
		results = r
		return err
	})
	if emitErr != nil {
		return nil, errors.Wrap(emitErr, "emitting object files")
	}

	if err := cache.WriteVersion(); err != nil {
		return nil, errors.Wrap(err, "writing cache version marker")
	}

	return &BuildResult{Objects: results, Diags: sink.All(), Graph: graph, Constants: constTable}, nil
}

// collectSpecializations finds every class in mod that is a generic
// specialization (types.Class.SpecializationOf set) and packages it as a
// split.Specialization for Split to synthesize a module from.
func collectSpecializations(db *program.Database, mod *mir.Module) []split.Specialization {
	var specs []split.Specialization
	for _, cid := range mod.Classes {
		cls := db.Class(cid)
		if cls == nil || cls.SpecializationOf == nil {
			continue
		}
		specs = append(specs, split.Specialization{
			Base:    *cls.SpecializationOf,
			Shapes:  cls.Shapes,
			Methods: append([]types.MethodId(nil), cls.Methods...),
		})
	}
	return specs
}

func classNameOf(db *program.Database) func(types.ClassId) string {
	return func(id types.ClassId) string {
		if c := db.Class(id); c != nil {
			return c.Name
		}
		return ""
	}
}

func sortedMethodIDs(units map[types.MethodId]*program.Unit) []types.MethodId {
	ids := make([]types.MethodId, 0, len(units))
	for id := range units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func buildModules(db *program.Database, moduleIDs []types.ModuleId) []*mir.Module {
	out := make([]*mir.Module, 0, len(moduleIDs))
	for _, id := range moduleIDs {
		name := symbolname.ModuleName("")
		if meta := db.Module(id); meta != nil {
			name = meta.Name
		}
		out = append(out, &mir.Module{
			Id:           id,
			Name:         name,
			OriginalName: name,
			Classes:      db.ClassesIn(id),
			Methods:      db.MethodsIn(id),
			Constants:    db.ConstantsIn(id),
		})
	}
	return out
}
