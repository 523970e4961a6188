package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_CountsEvents(t *testing.T) {
	r := require.New(t)
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg, "app", "users")
	r.NoError(err)

	p.Hit()
	p.Hit()
	p.Miss()
	p.Eviction()
	p.Expire()
	p.Expire()
	p.Expire()
	p.Refresh()
	p.LoadFailure()

	r.Equal(2.0, testutil.ToFloat64(p.hits))
	r.Equal(1.0, testutil.ToFloat64(p.misses))
	r.Equal(1.0, testutil.ToFloat64(p.evictions))
	r.Equal(3.0, testutil.ToFloat64(p.expirations))
	r.Equal(1.0, testutil.ToFloat64(p.refreshes))
	r.Equal(1.0, testutil.ToFloat64(p.loadFailures))

	r.Equal(6, testutil.CollectAndCount(reg))
}

func TestPrometheus_ExpositionNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg, "app", "users")
	require.NoError(t, err)
	p.Hit()

	expected := `
# HELP app_cache_hits_total Reads served from memory.
# TYPE app_cache_hits_total counter
app_cache_hits_total{cache="users"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "app_cache_hits_total"))
}

func TestPrometheus_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg, "app", "users")
	require.NoError(t, err)

	_, err = NewPrometheus(reg, "app", "users")
	require.Error(t, err)

	_, err = NewPrometheus(reg, "app", "sessions")
	require.NoError(t, err)
}
