package codegen

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/split"
	"forge.dev/emberc/internal/types"
)

// Job is one module queued for parallel lowering and emission.
type Job struct {
	Module      *mir.Module
	MethodOrder []types.MethodId
}

// Result is one completed (or skipped) job's outcome.
type Result struct {
	Module *mir.Module
	Hash   split.Hash
	Path   string
	Cached bool
}

// EmitAll lowers and emits every job in jobs across a pool of workers,
// each pulling the next job off a shared atomic counter rather than a
// channel — the same fetch_add-driven work queue the original compiler's
// parallel backend uses, which keeps every worker busy without the
// producer having to pre-shard work evenly.
func EmitAll(
	ctx context.Context,
	target *Target,
	cache *split.Cache,
	methods map[types.MethodId]*mir.Method,
	jobs []Job,
	workers int,
) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(jobs))
	var next int64 = -1

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				i := atomic.AddInt64(&next, 1)
				if int(i) >= len(jobs) {
					return nil
				}

				r, err := emitOne(target, cache, methods, jobs[i])
				if err != nil {
					return err
				}
				results[i] = r
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func emitOne(target *Target, cache *split.Cache, methods map[types.MethodId]*mir.Method, job Job) (Result, error) {
	hash := split.HashModule(job.Module, methods)
	if !cache.Changed(hash) {
		return Result{Module: job.Module, Hash: hash, Path: cache.Path(hash), Cached: true}, nil
	}

	builder := NewModuleBuilder(string(job.Module.Name))
	defer builder.Dispose()

	if err := builder.LowerMethods(job.MethodOrder, methods); err != nil {
		return Result{}, err
	}
	builder.EmitSetupFunctions(job.Module)

	target.RunOptPasses(builder.Module())

	object, err := target.EmitObject(builder.Module())
	if err != nil {
		return Result{}, err
	}
	if err := cache.Store(hash, object); err != nil {
		return Result{}, err
	}
	return Result{Module: job.Module, Hash: hash, Path: cache.Path(hash)}, nil
}
