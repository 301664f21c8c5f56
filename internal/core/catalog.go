package core

import (
	"fmt"
	"strings"
)

// CatalogItem is a fixed hotel or gift-card redemption offered alongside
// flights.
type CatalogItem struct {
	Kind           CandidateKind
	Name           string
	Program        string
	CashValue      Money
	Fees           *Money
	PointsRequired int
}

// ReferenceData bundles the read-only tables every component is built from.
type ReferenceData struct {
	Airports   AirportTable
	Chart      AwardChart
	Valuations Valuations
	Catalog    []CatalogItem
	Hubs       []AirportCode
	Carriers   map[string]string
}

func (c CatalogItem) Candidate(v Valuations) Candidate {
	return Candidate{
		ID:             fmt.Sprintf("%s:%s", c.Kind, slug(c.Name)),
		Kind:           c.Kind,
		Name:           c.Name,
		Program:        c.Program,
		CashValue:      c.CashValue,
		Fees:           c.Fees,
		PointsRequired: c.PointsRequired,
		Baseline:       v.Baseline(c.Kind, c.Program),
	}
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
