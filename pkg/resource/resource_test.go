package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	weight    int64
	finalized int
}

func (p *payload) Weight() int64 { return p.weight }
func (p *payload) Finalize()     { p.finalized++ }

func TestFinalize_ExplicitWins(t *testing.T) {
	p := &payload{}
	called := 0
	Finalize(p, func(*payload) { called++ })
	assert.Equal(t, 1, called)
	assert.Zero(t, p.finalized, "explicit finalizer replaces Finalizable")
}

func TestFinalize_FallsBackToFinalizable(t *testing.T) {
	p := &payload{}
	Finalize(p, nil)
	assert.Equal(t, 1, p.finalized)
}

func TestFinalize_NoopWithoutEither(t *testing.T) {
	assert.NotPanics(t, func() { Finalize(42, nil) })
}

func TestWeightOf(t *testing.T) {
	assert.Equal(t, int64(1000), WeightOf(&payload{weight: 1000}))
	assert.Equal(t, int64(8), WeightOf(int64(0)))
}
