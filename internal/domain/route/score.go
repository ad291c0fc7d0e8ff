package route

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Score measures how far a candidate route strays from a query route. Lower is better.
type Score float64

// Unreachable is the score of a candidate heading against the query direction.
var Unreachable = Score(math.Inf(1))

// IsUnreachable reports whether s is the Unreachable sentinel.
func (s Score) IsUnreachable() bool {
	return math.IsInf(float64(s), 1)
}

// String implements fmt.Stringer.
func (s Score) String() string {
	if s.IsUnreachable() {
		return "unreachable"
	}
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// MarshalJSON encodes Unreachable as null since JSON has no infinity.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.IsUnreachable() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(s), 'g', -1, 64)), nil
}

// ComputeRouteScore scores candidate against query.
//
// A candidate whose direction opposes the query direction scores Unreachable.
// Otherwise the score is the sum of the query source's and the query
// destination's distance to the candidate: the perpendicular distance to the
// candidate's line when the query point falls between the candidate's ends on
// that side, the distance to the nearest candidate endpoint when it falls
// outside. A zero-length candidate always uses endpoint distances.
// Coordinates so large that the arithmetic overflows yield ErrInvalidGeometry.
func ComputeRouteScore(candidate, query Segment) (Score, error) {
	if err := candidate.Validate(); err != nil {
		return 0, err
	}
	if err := query.Validate(); err != nil {
		return 0, err
	}

	dSeg := candidate.Direction()
	dQuery := query.Direction()
	if dSeg.Dot(dQuery) < 0 {
		return Unreachable, nil
	}

	length := dSeg.Norm()

	vs := query.Source.Sub(candidate.Source)
	sourceSide := vs.Norm()
	if length > 0 && vs.Dot(dSeg) > 0 {
		sourceSide = math.Abs(vs.Cross(dSeg)) / length
	}

	vd := query.Destination.Sub(candidate.Destination)
	destinationSide := vd.Norm()
	if length > 0 && vd.Dot(dSeg) < 0 {
		destinationSide = math.Abs(vd.Cross(dSeg)) / length
	}

	total := sourceSide + destinationSide
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: score overflows for candidate %v and query %v", ErrInvalidGeometry, candidate, query)
	}
	return Score(total), nil
}

// Candidate is anything that can be scored against a query segment.
type Candidate interface {
	Segment() Segment
}

// Ranked pairs a candidate with its score.
type Ranked[T Candidate] struct {
	Candidate T
	Score     Score
}

// Rank scores every candidate against query and returns them in ascending
// score order. Ties keep their input order and Unreachable candidates sort
// last. A positive limit truncates the result.
func Rank[T Candidate](candidates []T, query Segment, limit int) ([]Ranked[T], error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ranked := make([]Ranked[T], len(candidates))
	for i, c := range candidates {
		score, err := ComputeRouteScore(c.Segment(), query)
		if err != nil {
			return nil, err
		}
		ranked[i] = Ranked[T]{Candidate: c, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// MergeRanked merges two rankings into one, keeping ascending score order and
// truncating to limit when it is positive. On equal scores entries of best
// come before entries of next, so merging batches in input order ranks the
// same as a single Rank over all of them.
func MergeRanked[T Candidate](best, next []Ranked[T], limit int) []Ranked[T] {
	merged := make([]Ranked[T], 0, len(best)+len(next))
	merged = append(merged, best...)
	merged = append(merged, next...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score < merged[j].Score
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// ExcludeUnreachable drops Unreachable entries, keeping order.
func ExcludeUnreachable[T Candidate](ranked []Ranked[T]) []Ranked[T] {
	out := ranked[:0:0]
	for _, r := range ranked {
		if !r.Score.IsUnreachable() {
			out = append(out, r)
		}
	}
	return out
}
