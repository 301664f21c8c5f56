package core

import (
	"fmt"
	"sort"
	"strings"
)

type Preference string

const (
	MaximizeValue Preference = "maximize_value"
	MinimizeFees  Preference = "minimize_fees"
	DirectOnly    Preference = "direct_only"
)

// ParsePreference accepts the preference names case-insensitively; an empty
// string means maximize_value.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MaximizeValue, nil
	case MaximizeValue, MinimizeFees, DirectOnly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (want maximize_value, minimize_fees or direct_only)", ErrUnknownPreference, s)
}

type Ranking struct {
	Recommendations []Recommendation
	// PreferenceRelaxed is set when direct_only found no direct flight and the
	// full maximize_value list was returned instead.
	PreferenceRelaxed bool
	Affordable        int
	Exclusions        []Exclusion
}

type scored struct {
	c Candidate
	v ValueScore
}

// Rank scores candidates, drops those the balance cannot cover and orders the
// rest by pref. limit <= 0 returns every affordable candidate.
func Rank(candidates []Candidate, balance int, pref Preference, limit int) (*Ranking, error) {
	if balance < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeBalance, balance)
	}
	pref, err := ParsePreference(string(pref))
	if err != nil {
		return nil, err
	}

	out := &Ranking{}
	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		v, err := ScoreCandidate(c)
		if err != nil {
			out.Exclusions = append(out.Exclusions, Exclusion{
				Reason: ExcludeInvalidValuation,
				Detail: fmt.Sprintf("%s: %v", c.ID, err),
			})
			continue
		}
		if c.PointsRequired > balance {
			continue
		}
		pool = append(pool, scored{c: c, v: v})
	}
	out.Affordable = len(pool)

	switch pref {
	case MinimizeFees:
		sort.SliceStable(pool, func(i, j int) bool { return lessFees(pool[i], pool[j]) })
	case DirectOnly:
		direct := make([]scored, 0, len(pool))
		for _, s := range pool {
			if s.c.IsDirectFlight() {
				direct = append(direct, s)
			}
		}
		if len(direct) > 0 {
			pool = direct
		} else {
			out.PreferenceRelaxed = true
		}
		sort.SliceStable(pool, func(i, j int) bool { return lessValue(pool[i], pool[j]) })
	default:
		sort.SliceStable(pool, func(i, j int) bool { return lessValue(pool[i], pool[j]) })
	}

	if limit > 0 && len(pool) > limit {
		pool = pool[:limit]
	}

	out.Recommendations = make([]Recommendation, 0, len(pool))
	for i, s := range pool {
		out.Recommendations = append(out.Recommendations, Recommendation{Rank: i + 1, Candidate: s.c, Score: s.v})
	}
	return out, nil
}

func lessValue(a, b scored) bool {
	if a.v.exact != b.v.exact {
		return a.v.exact > b.v.exact
	}
	if a.c.PointsRequired != b.c.PointsRequired {
		return a.c.PointsRequired < b.c.PointsRequired
	}
	return a.c.ID < b.c.ID
}

func lessFees(a, b scored) bool {
	switch {
	case a.c.Fees != nil && b.c.Fees == nil:
		return true
	case a.c.Fees == nil && b.c.Fees != nil:
		return false
	case a.c.Fees != nil && b.c.Fees != nil && a.c.Fees.Cents != b.c.Fees.Cents:
		return a.c.Fees.Cents < b.c.Fees.Cents
	}
	return lessValue(a, b)
}
