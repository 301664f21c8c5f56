// Package postgres serves offers previously stored in a flights table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beetlebot/rewards-cli/internal/config"
	"github.com/beetlebot/rewards-cli/internal/core"
)

var ErrInvalidPrice = errors.New("invalid stored price")

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OffersAdapter reads rows of the form
// (id, flight_number, departure, arrival, date, price, airline, flight_time).
// The pool is opened on first search.
type OffersAdapter struct {
	cfg config.Postgres
	log *slog.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewOffersAdapter(cfg config.Postgres, log *slog.Logger) *OffersAdapter {
	if cfg.Table == "" {
		cfg.Table = "flights"
	}
	if log == nil {
		log = slog.Default()
	}
	return &OffersAdapter{cfg: cfg, log: log}
}

func (a *OffersAdapter) Name() string            { return "postgres" }
func (a *OffersAdapter) Tier() core.ProviderTier { return core.TierSelfHosted }
func (a *OffersAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapOfferSearch, core.CapStoredOffers}
}

func (a *OffersAdapter) Available() (bool, string) {
	if a.cfg.URL == "" {
		return false, "set REWARDS_DATABASE_URL to a database holding a flights table"
	}
	if !tableName.MatchString(a.cfg.Table) {
		return false, fmt.Sprintf("table name %q is not a plain identifier", a.cfg.Table)
	}
	return true, ""
}

func (a *OffersAdapter) connect(ctx context.Context) (*pgxpool.Pool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pool != nil {
		return a.pool, nil
	}
	if ok, reason := a.Available(); !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSearchUnavailable, reason)
	}
	pool, err := pgxpool.New(ctx, a.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", core.ErrSearchUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", core.ErrSearchUnavailable, err)
	}
	a.pool = pool
	return pool, nil
}

func (a *OffersAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// Row mirrors one stored flight. Every column is text in the stored layout.
type Row struct {
	ID           int64
	FlightNumber string
	Departure    string
	Arrival      string
	Date         string
	Price        string
	Airline      string
	FlightTime   string
}

func (a *OffersAdapter) SearchOffers(ctx context.Context, q core.OfferQuery) ([]core.Offer, error) {
	pool, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`
		SELECT id, COALESCE(flight_number, ''), departure, arrival, date,
		       COALESCE(price, ''), COALESCE(airline, ''), COALESCE(flight_time, '')
		FROM %s
		WHERE departure = $1 AND arrival = $2 AND date = $3
		ORDER BY id
	`, a.cfg.Table)

	rows, err := pool.Query(ctx, sql, string(q.Origin), string(q.Destination), q.Date.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query stored offers: %w", err)
	}
	stored, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var r Row
		err := row.Scan(&r.ID, &r.FlightNumber, &r.Departure, &r.Arrival, &r.Date, &r.Price, &r.Airline, &r.FlightTime)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stored offers: %w", err)
	}
	return a.offers(stored), nil
}

// offers converts stored rows, logging and skipping the malformed ones.
func (a *OffersAdapter) offers(stored []Row) []core.Offer {
	out := make([]core.Offer, 0, len(stored))
	for _, r := range stored {
		o, err := r.Offer(a.Name())
		if err != nil {
			a.log.Warn("skipping stored offer",
				"table", a.cfg.Table,
				"id", r.ID,
				"error", err,
			)
			continue
		}
		out = append(out, o)
	}
	return out
}

// Offer converts a stored row. Stored rows have no departure clock time or
// taxes figure, so both stay unknown.
func (r Row) Offer(source string) (core.Offer, error) {
	origin, err := core.ParseAirportCode(r.Departure)
	if err != nil {
		return core.Offer{}, err
	}
	destination, err := core.ParseAirportCode(r.Arrival)
	if err != nil {
		return core.Offer{}, err
	}
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Offer{}, err
	}
	price, err := ParsePrice(r.Price)
	if err != nil {
		return core.Offer{}, err
	}

	airline := strings.ToUpper(strings.TrimSpace(r.Airline))
	if airline == "" && len(r.FlightNumber) >= 2 {
		airline = strings.ToUpper(r.FlightNumber[:2])
	}

	return core.Offer{
		ID:           fmt.Sprintf("pg_%d", r.ID),
		Source:       source,
		Origin:       origin,
		Destination:  destination,
		Date:         date,
		Airline:      airline,
		FlightNumber: strings.ToUpper(strings.TrimSpace(r.FlightNumber)),
		Price:        price,
		Duration:     ParseFlightTime(r.FlightTime),
	}, nil
}

var priceString = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]{1,2})?)\s*([A-Za-z]{3})\s*$`)

// ParsePrice reads amounts stored as total followed by currency code,
// e.g. "123.45USD".
func ParsePrice(s string) (core.Money, error) {
	m := priceString.FindStringSubmatch(s)
	if m == nil {
		return core.Money{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %q: %w", ErrInvalidPrice, s, err)
	}
	return core.NewMoney(amount, m[2]), nil
}

var (
	isoDuration  = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
	textDuration = regexp.MustCompile(`(\d+)\s*(day|hour|minute|second)s?`)
)

// ParseFlightTime accepts ISO 8601 durations ("PT5H30M") and the spelled out
// form ("5 hours 30 minutes"). Anything else is 0.
func ParseFlightTime(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}

	if m := isoDuration.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		var d time.Duration
		for i, unit := range units {
			if m[i+1] == "" {
				continue
			}
			n, _ := strconv.Atoi(m[i+1])
			d += time.Duration(n) * unit
		}
		return d
	}

	var d time.Duration
	for _, m := range textDuration.FindAllStringSubmatch(strings.ToLower(s), -1) {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "day":
			d += time.Duration(n) * units[0]
		case "hour":
			d += time.Duration(n) * units[1]
		case "minute":
			d += time.Duration(n) * units[2]
		case "second":
			d += time.Duration(n) * units[3]
		}
	}
	return d
}
