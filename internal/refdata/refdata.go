// Package refdata loads the airport, award chart, valuation and catalog tables
// the optimizer is built from.
package refdata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/beetlebot/rewards-cli/internal/core"
)

//go:embed default.yaml
var defaultDocument []byte

type airportDoc struct {
	core.Coordinate `yaml:",inline"`
	Country         string `yaml:"country"`
	Region          string `yaml:"region"`
}

type catalogDoc struct {
	Kind     string  `yaml:"kind"`
	Name     string  `yaml:"name"`
	Program  string  `yaml:"program"`
	Cash     float64 `yaml:"cash"`
	Fees     float64 `yaml:"fees"`
	Currency string  `yaml:"currency"`
	Points   int     `yaml:"points"`
}

type document struct {
	Airports   map[string]airportDoc `yaml:"airports"`
	Hubs       []string              `yaml:"hubs"`
	Chart      map[string]int        `yaml:"chart"`
	Valuations struct {
		Airlines  map[string]float64 `yaml:"airlines"`
		Hotels    map[string]float64 `yaml:"hotels"`
		GiftCards map[string]float64 `yaml:"giftCards"`
	} `yaml:"valuations"`
	Catalog  []catalogDoc      `yaml:"catalog"`
	Carriers map[string]string `yaml:"carriers"`
}

// Default decodes the embedded tables.
func Default() (core.ReferenceData, error) {
	return Parse(defaultDocument)
}

// Load reads tables from path, or the embedded defaults when path is empty.
func Load(path string) (core.ReferenceData, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ReferenceData{}, fmt.Errorf("read reference data: %w", err)
	}
	ref, err := Parse(data)
	if err != nil {
		return core.ReferenceData{}, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

func Parse(data []byte) (core.ReferenceData, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return core.ReferenceData{}, fmt.Errorf("decode reference data: %w", err)
	}
	return doc.build()
}

func (d document) build() (core.ReferenceData, error) {
	var errs []error
	ref := core.ReferenceData{
		Airports: make(core.AirportTable, len(d.Airports)),
		Chart:    make(core.AwardChart, len(d.Chart)),
		Valuations: core.Valuations{
			Airlines:  lowerKeys(d.Valuations.Airlines),
			Hotels:    lowerKeys(d.Valuations.Hotels),
			GiftCards: lowerKeys(d.Valuations.GiftCards),
		},
		Carriers: make(map[string]string, len(d.Carriers)),
	}

	for raw, a := range d.Airports {
		code, err := core.ParseAirportCode(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("airports: %w", err))
			continue
		}
		if a.Lat < -90 || a.Lat > 90 || a.Lon < -180 || a.Lon > 180 {
			errs = append(errs, fmt.Errorf("airports: %s coordinates out of range (%v, %v)", code, a.Lat, a.Lon))
			continue
		}
		ref.Airports[code] = core.Airport{
			Code:       code,
			Coordinate: a.Coordinate,
			Country:    strings.ToUpper(a.Country),
			Region:     core.Region(a.Region),
		}
	}

	for tier, miles := range d.Chart {
		if miles <= 0 {
			errs = append(errs, fmt.Errorf("chart: %s must cost a positive number of miles, got %d", tier, miles))
			continue
		}
		ref.Chart[core.AwardTier(tier)] = miles
	}

	for name, table := range map[string]map[string]float64{
		"airlines":  ref.Valuations.Airlines,
		"hotels":    ref.Valuations.Hotels,
		"giftCards": ref.Valuations.GiftCards,
	} {
		if _, ok := table["default"]; !ok {
			errs = append(errs, fmt.Errorf("valuations.%s: missing default entry", name))
		}
		for program, rate := range table {
			if rate < 0 {
				errs = append(errs, fmt.Errorf("valuations.%s: %s is negative", name, program))
			}
		}
	}

	for _, raw := range d.Hubs {
		code, err := core.ParseAirportCode(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("hubs: %w", err))
			continue
		}
		if _, ok := ref.Airports[code]; !ok {
			errs = append(errs, fmt.Errorf("hubs: %s is not in the airport table", code))
			continue
		}
		ref.Hubs = append(ref.Hubs, code)
	}

	for i, c := range d.Catalog {
		item, err := c.item()
		if err != nil {
			errs = append(errs, fmt.Errorf("catalog[%d]: %w", i, err))
			continue
		}
		ref.Catalog = append(ref.Catalog, item)
	}
	sort.SliceStable(ref.Catalog, func(i, j int) bool { return ref.Catalog[i].Name < ref.Catalog[j].Name })

	for code, name := range d.Carriers {
		ref.Carriers[strings.ToUpper(code)] = name
	}

	if err := errors.Join(errs...); err != nil {
		return core.ReferenceData{}, err
	}
	return ref, nil
}

func (c catalogDoc) item() (core.CatalogItem, error) {
	kind := core.CandidateKind(c.Kind)
	switch kind {
	case core.KindHotel, core.KindGiftCard:
	default:
		return core.CatalogItem{}, fmt.Errorf("kind must be hotel or gift_card, got %q", c.Kind)
	}
	if c.Name == "" {
		return core.CatalogItem{}, errors.New("name is required")
	}
	if c.Currency == "" {
		return core.CatalogItem{}, fmt.Errorf("%s: currency is required", c.Name)
	}
	if c.Cash < 0 || c.Fees < 0 || c.Points < 0 {
		return core.CatalogItem{}, fmt.Errorf("%s: cash, fees and points must not be negative", c.Name)
	}

	item := core.CatalogItem{
		Kind:           kind,
		Name:           c.Name,
		Program:        strings.ToLower(c.Program),
		CashValue:      core.NewMoney(c.Cash, c.Currency),
		PointsRequired: c.Points,
	}
	// Catalog redemptions carry a known fee, zero when the document omits it.
	fees := core.NewMoney(c.Fees, c.Currency)
	item.Fees = &fees
	return item, nil
}

func lowerKeys(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
