// Package prop checks properties of formulas against randomly generated
// inputs, shrinking the first counterexample found.
package prop

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"
)

// Generator produces a value of type T from a PRNG and a size hint.
type Generator[T any] func(r *rand.Rand, size int) T

// Shrinker produces candidate smaller values that aim to preserve failure.
type Shrinker[T any] func(v T) []T

// Property returns nil when it holds for a.
type Property[A any] func(a A) error

// Options control property checking.
type Options struct {
	Trials          int           // number of trials
	Seed            int64         // random seed; 0 means time.Now().UnixNano()
	Size            int           // size hint for generators
	Parallelism     int           // number of workers; <=0 means GOMAXPROCS
	MaxShrinkRounds int           // limit for shrinking attempts
	MaxShrinkTime   time.Duration // wall time limit for shrinking; 0 to disable
	Logger          log15.Logger  // nil discards
}

// Failure is a counterexample: the generated input, the smallest failing
// input shrinking found, and the error the property reported for it.
type Failure[A any] struct {
	Trial  int
	Input  A
	Shrunk A
	Err    error
}

// Result is the outcome of a property check.
type Result[A any] struct {
	Passed       int // passing trials, only those before the failure if any
	Failure      *Failure[A]
	Seed         int64
	Duration     time.Duration
	ShrinkRounds int
}

// Failed returns true if a counterexample was found.
func (r Result[A]) Failed() bool { return r.Failure != nil }

func (r Result[A]) String() string {
	if r.Failure == nil {
		return fmt.Sprintf("passed %d trials (seed %d)", r.Passed, r.Seed)
	}
	return fmt.Sprintf("trial %d failed (seed %d): %v\n  input:  %v\n  shrunk: %v (%d rounds)",
		r.Failure.Trial, r.Seed, r.Failure.Err, r.Failure.Input, r.Failure.Shrunk, r.ShrinkRounds)
}

func (o *Options) defaults() {
	if o.Trials <= 0 {
		o.Trials = 200
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Size <= 0 {
		o.Size = 4
	}
	if o.Parallelism <= 0 {
		o.Parallelism = max(runtime.GOMAXPROCS(0), 1)
	}
	if o.MaxShrinkRounds <= 0 {
		o.MaxShrinkRounds = 200
	}
	if o.Logger == nil {
		o.Logger = log15.New()
		o.Logger.SetHandler(log15.DiscardHandler())
	}
}

type outcome[A any] struct {
	trial int
	input A
	err   error
}

// ForAll checks prop on opts.Trials generated inputs. Trial i always sees
// the input generated from the seed derived from (opts.Seed, i), whichever
// worker runs it, so a reported seed reproduces the failure. A failing
// trial stops the trials after it, while every trial before it still runs:
// the reported failure is the one with the smallest index, however the
// workers are scheduled. It is shrunk with shrink, when not nil.
func ForAll[A any](ctx context.Context, gen Generator[A], shrink Shrinker[A], prop Property[A], opts Options) Result[A] {
	start := time.Now()
	opts.defaults()

	// trials at or above bound are not run
	var bound atomic.Int64
	bound.Store(int64(opts.Trials))
	lower := func(i int) {
		for {
			b := bound.Load()
			if int64(i) >= b || bound.CompareAndSwap(b, int64(i)) {
				return
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	trials := make(chan int)
	outs := make(chan outcome[A])

	g.Go(func() error {
		defer close(trials)
		for i := 0; i < opts.Trials && int64(i) < bound.Load(); i++ {
			select {
			case trials <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for w := 0; w < opts.Parallelism; w++ {
		g.Go(func() error {
			for i := range trials {
				if int64(i) >= bound.Load() {
					continue
				}
				r := rand.New(rand.NewSource(deriveSeed(opts.Seed, i)))
				a := gen(r, opts.Size)
				err := check(prop, a)
				if err != nil {
					lower(i)
				}
				select {
				case outs <- outcome[A]{trial: i, input: a, err: err}:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(outs)
	}()

	res := Result[A]{Seed: opts.Seed}
	var first *outcome[A]
	var passed []int
	for o := range outs {
		if o.err == nil {
			passed = append(passed, o.trial)
			continue
		}
		if first == nil || o.trial < first.trial {
			first = &o
		}
	}
	for _, i := range passed {
		if first == nil || i < first.trial {
			res.Passed++
		}
	}

	if first != nil {
		shrunk, failure, rounds := minimize(first.input, first.err, shrink, prop, opts)
		res.Failure = &Failure[A]{Trial: first.trial, Input: first.input, Shrunk: shrunk, Err: failure}
		res.ShrinkRounds = rounds
		opts.Logger.Debug("property failed", "trial", first.trial, "seed", opts.Seed, "rounds", rounds, "err", failure)
	} else {
		opts.Logger.Debug("property held", "trials", res.Passed, "seed", opts.Seed)
	}
	res.Duration = time.Since(start)
	return res
}

// minimize repeatedly replaces the failing input by its first failing
// shrink candidate, until none fails or a limit is reached.
func minimize[A any](best A, err error, shrink Shrinker[A], prop Property[A], opts Options) (A, error, int) {
	if shrink == nil {
		return best, err, 0
	}
	var deadline time.Time
	if opts.MaxShrinkTime > 0 {
		deadline = time.Now().Add(opts.MaxShrinkTime)
	}
	rounds := 0
	for rounds < opts.MaxShrinkRounds {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		progressed := false
		for _, c := range shrink(best) {
			if cerr := check(prop, c); cerr != nil {
				best, err, progressed = c, cerr, true
				break
			}
		}
		rounds++
		if !progressed {
			break
		}
	}
	return best, err, rounds
}

// check runs prop, reporting a panic as a failure.
func check[A any](prop Property[A], a A) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return prop(a)
}

// deriveSeed deterministically mixes base seed with trial index via SHA-256.
func deriveSeed(base int64, idx int) int64 {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(base))
	binary.LittleEndian.PutUint64(b[8:16], uint64(idx))
	h := sha256.Sum256(b[:])
	return int64(binary.LittleEndian.Uint64(h[0:8]))
}
