package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWelchSymmetryProperty(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{3, 4, 5, 6, 7}

	rAB := WelchT(a, b)
	rBA := WelchT(b, a)

	require.InDelta(t, rAB.PValue, rBA.PValue, 1e-9)
	require.InDelta(t, rAB.T, -rBA.T, 1e-9)
}

func TestWelchAndCohenS7(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{3, 4, 5, 6, 7}

	w := WelchT(a, b)
	require.InDelta(t, 0.072, w.PValue, 0.015)

	c := CohensD(a, b)
	require.InDelta(t, -1.264, c.D, 0.01)
	require.Equal(t, EffectLarge, c.Label)

	cRev := CohensD(b, a)
	require.InDelta(t, -c.D, cRev.D, 1e-9)
	require.Equal(t, EffectLarge, cRev.Label)
}

func TestRegularizedIncompleteBetaBounds(t *testing.T) {
	require.Equal(t, 0.0, regularizedIncompleteBeta(0, 2, 3))
	require.Equal(t, 1.0, regularizedIncompleteBeta(1, 2, 3))
	v := regularizedIncompleteBeta(0.5, 2, 2)
	require.True(t, v > 0 && v < 1)
}

func TestRoundConsensusClassification(t *testing.T) {
	require.Equal(t, "unanimous", RoundConsensus([]string{"buy", "buy", "buy"}))
	require.Equal(t, "majority_buy", RoundConsensus([]string{"buy", "buy", "sell"}))
	require.Equal(t, "split", RoundConsensus([]string{"buy", "sell"}))
	require.Equal(t, "no_trades", RoundConsensus([]string{"hold", "hold"}))
}

func TestCohensDSymmetricMagnitude(t *testing.T) {
	a := []float64{10, 12, 11, 13, 9}
	b := []float64{1, 2, 3, 2, 1}
	d1 := CohensD(a, b).D
	d2 := CohensD(b, a).D
	require.InDelta(t, math.Abs(d1), math.Abs(d2), 1e-9)
}
