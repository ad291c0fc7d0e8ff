package route

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(x1, y1, x2, y2 float64) Segment {
	return NewSegment(NewPoint(x1, y1), NewPoint(x2, y2))
}

func TestComputeRouteScore_ParallelSameDirection(t *testing.T) {
	score, err := ComputeRouteScore(seg(0, 0, 10, 0), seg(0, 1, 10, 1))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, float64(score), 1e-9)
}

func TestComputeRouteScore_OppositeDirection(t *testing.T) {
	score, err := ComputeRouteScore(seg(0, 0, 10, 0), seg(10, 1, 0, 1))
	require.NoError(t, err)
	assert.True(t, score.IsUnreachable())
	assert.Equal(t, "unreachable", score.String())
}

func TestComputeRouteScore_Identity(t *testing.T) {
	cases := []Segment{
		seg(0, 0, 10, 0),
		seg(38.0675, -120.5436, 38.1391, -120.4561),
		seg(-5, 3, -5, 3),
	}
	for _, c := range cases {
		score, err := ComputeRouteScore(c, c)
		require.NoError(t, err)
		assert.Equal(t, Score(0), score, "segment %v", c)
	}
}

func TestComputeRouteScore_ZeroLengthCandidate(t *testing.T) {
	candidate := seg(2, 2, 2, 2)
	queries := []Segment{
		seg(0, 0, 5, 5),
		seg(2, 3, 2, 3),
		seg(-1, 4, 7, -3),
		seg(2, 2, 9, 2),
	}
	for _, q := range queries {
		score, err := ComputeRouteScore(candidate, q)
		require.NoError(t, err)
		want := q.Source.Sub(candidate.Source).Norm() + q.Destination.Sub(candidate.Destination).Norm()
		assert.False(t, math.IsNaN(float64(score)))
		assert.InDelta(t, want, float64(score), 1e-9, "query %v", q)
	}
}

func TestComputeRouteScore_QuerySourceBehindCandidate(t *testing.T) {
	// query source sits 3 units behind the candidate start, destination on the line
	score, err := ComputeRouteScore(seg(0, 0, 10, 0), seg(-3, 0, 5, 0))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, float64(score), 1e-9)
}

func TestComputeRouteScore_QueryDestinationBeyondCandidate(t *testing.T) {
	// destination overshoots the candidate end: endpoint distance, not line distance
	score, err := ComputeRouteScore(seg(0, 0, 10, 0), seg(2, 0, 13, 4))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, float64(score), 1e-9)
}

func TestComputeRouteScore_PerpendicularQueryIsFinite(t *testing.T) {
	score, err := ComputeRouteScore(seg(0, 0, 10, 0), seg(5, -2, 5, 2))
	require.NoError(t, err)
	assert.False(t, score.IsUnreachable())
	assert.InDelta(t, 4.0, float64(score), 1e-9)
}

func TestComputeRouteScore_DirectionSign(t *testing.T) {
	candidate := seg(0, 0, 4, 3)
	for _, tc := range []struct {
		query       Segment
		unreachable bool
	}{
		{seg(1, 1, 5, 4), false},
		{seg(1, 1, 2, 0), false},
		{seg(5, 4, 1, 1), true},
		{seg(0, 0, -1, 0), true},
		{seg(3, 3, 3, 3), false},
	} {
		score, err := ComputeRouteScore(candidate, tc.query)
		require.NoError(t, err)
		assert.Equal(t, tc.unreachable, score.IsUnreachable(), "query %v", tc.query)
		if !tc.unreachable {
			assert.GreaterOrEqual(t, float64(score), 0.0)
		}
	}
}

func TestComputeRouteScore_InvalidGeometry(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(-1)

	_, err := ComputeRouteScore(seg(nan, 0, 1, 1), seg(0, 0, 1, 1))
	assert.True(t, errors.Is(err, ErrInvalidGeometry))

	_, err = ComputeRouteScore(seg(0, 0, 1, 1), seg(0, 0, 1, inf))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestComputeRouteScore_OverflowIsInvalidGeometry(t *testing.T) {
	// finite coordinates whose differences overflow float64
	score, err := ComputeRouteScore(seg(-1e308, 0, 1e308, 0), seg(0, 1, 5, 1))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.False(t, math.IsNaN(float64(score)))

	kl := seg(3.1180, 101.6767, 3.1579, 101.7116)
	_, err = ComputeRouteScore(kl, seg(-1.7e308, -1.7e308, -1.6e308, -1.6e308))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestScore_MarshalJSON(t *testing.T) {
	b, err := Unreachable.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = Score(2.5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(b))
}

type namedSegment struct {
	name string
	seg  Segment
}

func (n namedSegment) Segment() Segment { return n.seg }

func TestRank_StableTies(t *testing.T) {
	query := seg(0, 0, 10, 0)
	// scores against query: 5.0, 2.0, 2.0
	candidates := []namedSegment{
		{"five", seg(0, 2.5, 10, 2.5)},
		{"two-a", seg(0, 1, 10, 1)},
		{"two-b", seg(0, -1, 10, -1)},
	}

	ranked, err := Rank(candidates, query, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "two-a", ranked[0].Candidate.name)
	assert.Equal(t, "two-b", ranked[1].Candidate.name)
	assert.Equal(t, "five", ranked[2].Candidate.name)
	assert.InDelta(t, 5.0, float64(ranked[2].Score), 1e-9)
}

func TestRank_UnreachableLastAndLimit(t *testing.T) {
	query := seg(0, 0, 10, 0)
	candidates := []namedSegment{
		{"west", seg(10, 0, 0, 0)},
		{"far", seg(0, 9, 10, 9)},
		{"close", seg(0, 0.5, 10, 0.5)},
	}

	ranked, err := Rank(candidates, query, 0)
	require.NoError(t, err)
	assert.Equal(t, "close", ranked[0].Candidate.name)
	assert.Equal(t, "far", ranked[1].Candidate.name)
	assert.True(t, ranked[2].Score.IsUnreachable())

	top, err := Rank(candidates, query, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "far", top[1].Candidate.name)

	assert.Len(t, ExcludeUnreachable(ranked), 2)
	assert.Len(t, ranked, 3, "ExcludeUnreachable must not modify its input")
}

func TestRank_OverflowingCandidateFails(t *testing.T) {
	candidates := []namedSegment{
		{"ok", seg(0, 0, 10, 0)},
		{"huge", seg(-1e308, 0, 1e308, 0)},
	}
	_, err := Rank(candidates, seg(0, 1, 5, 1), 0)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestMergeRanked(t *testing.T) {
	query := seg(0, 0, 10, 0)
	first, err := Rank([]namedSegment{
		{"a-two", seg(0, 1, 10, 1)},
		{"a-five", seg(0, 2.5, 10, 2.5)},
	}, query, 2)
	require.NoError(t, err)
	second, err := Rank([]namedSegment{
		{"b-zero", seg(0, 0, 10, 0)},
		{"b-two", seg(0, -1, 10, -1)},
	}, query, 2)
	require.NoError(t, err)

	merged := MergeRanked(first, second, 3)
	require.Len(t, merged, 3)
	assert.Equal(t, "b-zero", merged[0].Candidate.name)
	assert.Equal(t, "a-two", merged[1].Candidate.name)
	assert.Equal(t, "b-two", merged[2].Candidate.name)
	assert.Len(t, first, 2, "MergeRanked must not modify its inputs")

	assert.Len(t, MergeRanked(first, second, 0), 4)
	assert.Empty(t, MergeRanked[namedSegment](nil, nil, 5))
}

func TestRank_InvalidQuery(t *testing.T) {
	_, err := Rank([]namedSegment{}, seg(math.NaN(), 0, 1, 1), 5)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
