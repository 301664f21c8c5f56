package core

import (
	"fmt"
	"math"
	"strings"
)

const defaultProgram = "default"

// Valuations holds published baseline rates in cents per mile/point, keyed by
// program. Each map should carry a "default" entry.
type Valuations struct {
	Airlines  map[string]float64
	Hotels    map[string]float64
	GiftCards map[string]float64
}

// Baseline returns the rate for program within kind, falling back to the
// kind's default entry.
func (v Valuations) Baseline(kind CandidateKind, program string) float64 {
	var table map[string]float64
	switch kind {
	case KindFlight:
		table = v.Airlines
	case KindHotel:
		table = v.Hotels
	case KindGiftCard:
		table = v.GiftCards
	}
	if rate, ok := table[strings.ToLower(program)]; ok {
		return rate
	}
	return table[defaultProgram]
}

// Score computes the value of redeeming points for cash, net of fees.
func Score(cash Money, points int, baseline float64, fees Money) (ValueScore, error) {
	if points < 0 {
		return ValueScore{}, fmt.Errorf("%w: points required %d", ErrInvalidValuation, points)
	}
	if cash.Cents < 0 || fees.Cents < 0 {
		return ValueScore{}, fmt.Errorf("%w: negative cash or fees", ErrInvalidValuation)
	}
	if baseline < 0 {
		return ValueScore{}, fmt.Errorf("%w: negative baseline %v", ErrInvalidValuation, baseline)
	}
	if fees.Cents != 0 && fees.Currency != cash.Currency {
		return ValueScore{}, fmt.Errorf("%w: fees in %s, cash in %s", ErrCurrencyMismatch, fees.Currency, cash.Currency)
	}

	net := cash.Cents - fees.Cents
	if net < 0 {
		net = 0
	}

	exact := 0.0
	if points > 0 {
		exact = float64(net) / float64(points)
	}

	savings := 0.0
	if baseline > 0 {
		savings = (exact - baseline) / baseline * 100
	}

	return ValueScore{
		ValuePerUnit:      round2(exact),
		Baseline:          baseline,
		SavingsPercentage: round2(savings),
		IsGoodValue:       exact > baseline,
		exact:             exact,
	}, nil
}

// ScoreCandidate scores c with its own baseline. Unknown fees count as zero.
func ScoreCandidate(c Candidate) (ValueScore, error) {
	fees := Money{Currency: c.CashValue.Currency}
	if c.Fees != nil {
		fees = *c.Fees
	}
	return Score(c.CashValue, c.PointsRequired, c.Baseline, fees)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
