package selftest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/bindptr/errors"
)

// Context is passed to every check invocation.
type Context struct {
	context.Context
	Name  string
	Round int
}

// Options controls a suite run.
type Options struct {
	// Progress is called after each check invocation, from the worker
	// goroutine that ran it.
	Progress func(Result)
	Filter   []string
	// Threads is the number of checks run in parallel; 0 means GOMAXPROCS.
	Threads int
	// Repeat is the number of rounds; 0 means 1.
	Repeat int
}

// Result is the outcome of one check invocation.
type Result struct {
	Err      error
	Name     string
	Round    int
	Duration time.Duration
	Skipped  bool
}

// Passed reports whether the check ran and succeeded.
func (r Result) Passed() bool {
	return r.Err == nil && !r.Skipped
}

// RunAll runs every check of Default. threads and repeat follow Options;
// zero selects the defaults.
func RunAll(ctx context.Context, threads, repeat int) (*Report, error) {
	return Default.Run(ctx, Options{Threads: threads, Repeat: repeat})
}

type job struct {
	check Check
	order int
	round int
}

// Run executes the selected checks and returns their results. A cancelled
// context stops dispatching new checks; the partial report is returned
// together with the context error.
func (s *Suite) Run(ctx context.Context, opts Options) (*Report, error) {
	checks, err := s.Select(opts.Filter)
	if err != nil {
		return nil, err
	}
	if opts.Threads < 0 || opts.Repeat < 0 {
		return nil, errors.InvalidInput(errors.PhaseSelfTest, "threads %d and repeat %d must not be negative", opts.Threads, opts.Repeat)
	}

	threads := opts.Threads
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	repeat := opts.Repeat
	if repeat == 0 {
		repeat = 1
	}

	report := &Report{
		Suite:   s.name,
		Started: time.Now(),
		Rounds:  repeat,
	}

	Logger().Info("running checks",
		zap.String("suite", s.name),
		zap.Int("checks", len(checks)),
		zap.Int("threads", threads),
		zap.Int("repeat", repeat))

	jobs := make(chan job)
	results := make([]indexed, 0, len(checks)*repeat)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := runOne(ctx, j.check, j.round)
				if !res.Passed() && !res.Skipped {
					Logger().Warn("check failed",
						zap.String("check", res.Name),
						zap.Int("round", res.Round),
						zap.Error(res.Err))
				}
				if opts.Progress != nil {
					opts.Progress(res)
				}
				mu.Lock()
				results = append(results, indexed{Result: res, order: j.order})
				mu.Unlock()
			}
		}()
	}

	var runErr error
dispatch:
	for round := 0; round < repeat; round++ {
		for i, c := range checks {
			select {
			case jobs <- job{check: c, order: i, round: round}:
			case <-ctx.Done():
				runErr = ctx.Err()
				break dispatch
			}
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Round != results[j].Round {
			return results[i].Round < results[j].Round
		}
		return results[i].order < results[j].order
	})
	report.Results = make([]Result, len(results))
	for i, r := range results {
		report.Results[i] = r.Result
	}
	report.Duration = time.Since(report.Started)

	Logger().Info("checks finished",
		zap.String("suite", s.name),
		zap.Int("passed", report.Passed()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()),
		zap.Duration("duration", report.Duration))

	return report, runErr
}

type indexed struct {
	Result
	order int
}

func runOne(ctx context.Context, c Check, round int) (res Result) {
	res = Result{Name: c.Name, Round: round}
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			res.Err = errors.New(errors.PhaseSelfTest, errors.KindCheckFailed).
				Target(c.Name).
				Cause(cause).
				Detail("check panicked").
				Build()
		}
	}()

	err := c.Run(&Context{Context: ctx, Name: c.Name, Round: round})
	switch {
	case err == nil:
	case isSkip(err):
		res.Skipped = true
		res.Err = err
	default:
		res.Err = err
	}
	return res
}
