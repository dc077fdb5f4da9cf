package changepoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	valid := Options{Burnin: 100, Samples: 1000, Thin: 10, Seed: 1}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		opts Options
	}{
		{"negative burnin", Options{Burnin: -1, Samples: 100, Thin: 1}},
		{"zero samples", Options{Samples: 0, Thin: 1}},
		{"negative samples", Options{Samples: -5, Thin: 1}},
		{"zero thin", Options{Samples: 100, Thin: 0}},
		{"indivisible thin", Options{Samples: 100, Thin: 3}},
		{"negative seed", Options{Samples: 100, Thin: 1, Seed: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.opts.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewModel_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := NewSequence("empty", nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewSequence("negative", []int{1, -2, 3})
	require.ErrorIs(t, err, ErrInvalidInput)

	seq, err := NewSequence("short", []int{1, 2, 3})
	require.NoError(t, err)

	_, err = NewModel(seq, 3, DefaultPriors())
	require.ErrorIs(t, err, ErrInvalidInput, "m >= n must be rejected")

	_, err = NewModel(seq, -1, DefaultPriors())
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewModel(seq, 1, Priors{RateShape: 0, RateRate: 1, StayAlpha: 1, StayBeta: 1})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_Reproducible(t *testing.T) {
	t.Parallel()

	opts := Options{Burnin: 100, Samples: 300, Thin: 3, Seed: 42}

	first := fitSynthetic(t, []float64{0.5, 4.0}, []int{60, 60}, 1, opts)
	second := fitSynthetic(t, []float64{0.5, 4.0}, []int{60, 60}, 1, opts)

	require.Equal(t, first, second, "identical inputs and seed must produce bit-identical draws")
}

func TestRun_SeedChangesDraws(t *testing.T) {
	t.Parallel()

	first := fitSynthetic(t, []float64{0.5, 4.0}, []int{60, 60}, 1,
		Options{Burnin: 100, Samples: 300, Thin: 3, Seed: 1})
	second := fitSynthetic(t, []float64{0.5, 4.0}, []int{60, 60}, 1,
		Options{Burnin: 100, Samples: 300, Thin: 3, Seed: 2})

	assert.NotEqual(t, first.Records, second.Records)
}

func TestRun_RetainedCount(t *testing.T) {
	t.Parallel()

	draws := fitSynthetic(t, []float64{1.0}, []int{30}, 0,
		Options{Burnin: 50, Samples: 120, Thin: 4, Seed: 9})

	assert.Equal(t, 30, draws.Len())
}

func TestRun_Cancellation(t *testing.T) {
	t.Parallel()

	counts, err := Simulate(5, []float64{1.0}, []int{20})
	require.NoError(t, err)

	seq, err := NewSequence("cancelled", counts)
	require.NoError(t, err)

	model, err := NewModel(seq, 0, DefaultPriors())
	require.NoError(t, err)

	engine, err := NewEngine(model, Options{Samples: 1000, Thin: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "cancelled", "error must identify the series")
}

func TestRun_MaxChangepoints(t *testing.T) {
	t.Parallel()

	// m = n-1 is the identifiability boundary: it must run to completion,
	// never silently truncate.
	seq, err := NewSequence("boundary", []int{4, 1, 9, 2, 7, 3})
	require.NoError(t, err)

	model, err := NewModel(seq, seq.Len()-1, DefaultPriors())
	require.NoError(t, err)

	engine, err := NewEngine(model, Options{Burnin: 20, Samples: 50, Thin: 1, Seed: 2})
	require.NoError(t, err)

	draws, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, draws.Len())
}

func TestRun_ProgressReported(t *testing.T) {
	t.Parallel()

	counts, err := Simulate(5, []float64{1.0}, []int{20})
	require.NoError(t, err)

	seq, err := NewSequence("progress", counts)
	require.NoError(t, err)

	model, err := NewModel(seq, 0, DefaultPriors())
	require.NoError(t, err)

	var phases []string

	var last int

	engine, err := NewEngine(model, Options{
		Burnin:        40,
		Samples:       60,
		Thin:          1,
		ProgressEvery: 25,
		Progress: func(phase string, done, total int) {
			phases = append(phases, phase)
			last = done

			assert.Equal(t, 100, total)
		},
	})
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{PhaseBurnin, PhaseSampling, PhaseSampling, PhaseSampling}, phases)
	assert.Equal(t, 100, last, "final iteration must always be reported")
}
