package fundamental

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newthinker/quorum/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestLoadDefaults_Embedded(t *testing.T) {
	d, err := LoadDefaults("")
	require.NoError(t, err)

	row, ok := d.Lookup("半导体")
	assert.True(t, ok)
	assert.Equal(t, 15.0, row.RDRatio)

	row, ok = d.Lookup("  Software ")
	assert.True(t, ok, "lookup should ignore case and spaces")
	assert.Equal(t, 18.0, row.RDRatio)

	row, ok = d.Lookup("shipbuilding")
	assert.False(t, ok)
	assert.Equal(t, d.Fallback, row)
}

func TestLoadDefaults_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: {revenue_growth: 1, rd_ratio: 2}
industries:
  Robotics: {revenue_growth: 30, rd_ratio: 20}
`), 0644))

	d, err := LoadDefaults(path)
	require.NoError(t, err)
	row, ok := d.Lookup("robotics")
	assert.True(t, ok)
	assert.Equal(t, 30.0, row.RevenueGrowth)
}

func TestLoadDefaults_Errors(t *testing.T) {
	_, err := LoadDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseDefaults([]byte("industries: [not, a, map]"))
	assert.Error(t, err)
}

func TestBackfill(t *testing.T) {
	d, err := LoadDefaults("")
	require.NoError(t, err)

	in := Fundamentals{Industry: "白酒", PE: f64(28.5), RevenueGrowth: f64(18)}
	out := d.Backfill(in)

	assert.Equal(t, 18.0, *out.RevenueGrowth, "known values are kept")
	require.NotNil(t, out.RDRatio)
	assert.Equal(t, 0.5, *out.RDRatio)
	assert.Equal(t, []string{FieldRDRatio}, out.Backfilled)
	assert.Nil(t, in.RDRatio, "input is not modified")
	assert.Contains(t, out.Summary(), "(industry default)")
}

func TestBackfill_NilDefaults(t *testing.T) {
	var d *Defaults
	in := Fundamentals{Industry: "银行"}
	assert.Equal(t, in, d.Backfill(in))
}

func TestSummary_Unknowns(t *testing.T) {
	s := Fundamentals{}.Summary()
	assert.Contains(t, s, "Industry: unknown")
	assert.True(t, strings.Contains(s, "PE: n/a"))
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider([]config.WatchlistItem{
		{Symbol: "600519.sh", Industry: "白酒", PE: f64(28.5)},
	})

	f, err := p.Fetch(context.Background(), "600519.SH")
	require.NoError(t, err)
	assert.Equal(t, "白酒", f.Industry)
	assert.Equal(t, 28.5, *f.PE)

	f, err = p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, Fundamentals{}, f)
}
