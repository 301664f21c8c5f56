package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebot/rewards-cli/internal/core"
)

func TestSearchMetrics_CountsByStatus(t *testing.T) {
	m := NewSearchMetrics(nil)

	m.ObserveSearch(core.SearchOutcome{Status: core.SearchOK, Offers: 4, Elapsed: 20 * time.Millisecond})
	m.ObserveSearch(core.SearchOutcome{Status: core.SearchOK, Offers: 2, Elapsed: 30 * time.Millisecond})
	m.ObserveSearch(core.SearchOutcome{Status: core.SearchTimeout, Elapsed: time.Second})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("timeout")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.offers))
}

func TestSearchMetrics_WriteTextfile(t *testing.T) {
	m := NewSearchMetrics(nil)
	m.ObserveSearch(core.SearchOutcome{Status: core.SearchEmpty})

	path := filepath.Join(t.TempDir(), "rewards.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rewards_offer_searches_total{status="empty"} 1`)
}
