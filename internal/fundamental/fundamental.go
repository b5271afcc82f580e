// Package fundamental holds company fundamentals and the industry table used
// to fill gaps in them.
package fundamental

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/quorum/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var embeddedDefaults []byte

// Field names reported in Fundamentals.Backfilled.
const (
	FieldRevenueGrowth = "revenue_growth"
	FieldRDRatio       = "rd_ratio"
)

// Fundamentals are the company figures the committee reasons over.
// Ratios are percentages. Nil means unknown.
type Fundamentals struct {
	Industry      string   `json:"industry,omitempty"`
	PE            *float64 `json:"pe,omitempty"`
	PB            *float64 `json:"pb,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"`
	RDRatio       *float64 `json:"rd_ratio,omitempty"`
	Backfilled    []string `json:"backfilled,omitempty"`
}

// IndustryDefault is one row of the defaults table.
type IndustryDefault struct {
	RevenueGrowth float64 `yaml:"revenue_growth"`
	RDRatio       float64 `yaml:"rd_ratio"`
}

// Defaults maps industry names to default growth and R&D figures.
type Defaults struct {
	Fallback   IndustryDefault            `yaml:"default"`
	Industries map[string]IndustryDefault `yaml:"industries"`
}

// LoadDefaults reads the table at path, or the built-in table when path is empty.
func LoadDefaults(path string) (*Defaults, error) {
	data := embeddedDefaults
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading industry defaults: %w", err)
		}
		data = b
	}
	return ParseDefaults(data)
}

// ParseDefaults decodes a YAML defaults table.
func ParseDefaults(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing industry defaults: %w", err)
	}
	norm := make(map[string]IndustryDefault, len(d.Industries))
	for k, v := range d.Industries {
		norm[normalize(k)] = v
	}
	d.Industries = norm
	return &d, nil
}

// Lookup returns the row for industry. ok is false when the fallback row is used.
func (d *Defaults) Lookup(industry string) (IndustryDefault, bool) {
	if row, ok := d.Industries[normalize(industry)]; ok {
		return row, true
	}
	return d.Fallback, false
}

// Backfill returns a copy of f with missing growth and R&D ratio filled from
// the industry table. The filled field names are appended to Backfilled.
func (d *Defaults) Backfill(f Fundamentals) Fundamentals {
	if d == nil {
		return f
	}
	out := f
	out.Backfilled = append([]string(nil), f.Backfilled...)
	row, _ := d.Lookup(f.Industry)
	if out.RevenueGrowth == nil {
		v := row.RevenueGrowth
		out.RevenueGrowth = &v
		out.Backfilled = append(out.Backfilled, FieldRevenueGrowth)
	}
	if out.RDRatio == nil {
		v := row.RDRatio
		out.RDRatio = &v
		out.Backfilled = append(out.Backfilled, FieldRDRatio)
	}
	return out
}

func (f Fundamentals) backfilled(field string) bool {
	for _, b := range f.Backfilled {
		if b == field {
			return true
		}
	}
	return false
}

// Summary renders the fundamentals for prompts. Backfilled values are marked.
func (f Fundamentals) Summary() string {
	var sb strings.Builder
	industry := f.Industry
	if industry == "" {
		industry = "unknown"
	}
	sb.WriteString(fmt.Sprintf("- Industry: %s\n", industry))
	sb.WriteString(fmt.Sprintf("- PE: %s, PB: %s, ROE: %s\n", fmtOpt(f.PE, ""), fmtOpt(f.PB, ""), fmtOpt(f.ROE, "%")))
	sb.WriteString(fmt.Sprintf("- Revenue growth: %s%s\n", fmtOpt(f.RevenueGrowth, "%"), f.mark(FieldRevenueGrowth)))
	sb.WriteString(fmt.Sprintf("- R&D ratio: %s%s\n", fmtOpt(f.RDRatio, "%"), f.mark(FieldRDRatio)))
	return sb.String()
}

func (f Fundamentals) mark(field string) string {
	if f.backfilled(field) {
		return " (industry default)"
	}
	return ""
}

func fmtOpt(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%s", *v, unit)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Provider supplies fundamentals for a symbol.
type Provider interface {
	Fetch(ctx context.Context, symbol string) (Fundamentals, error)
}

// StaticProvider serves fundamentals declared in the watchlist.
type StaticProvider struct {
	items map[string]Fundamentals
}

// NewStaticProvider indexes the watchlist by upper-cased symbol.
func NewStaticProvider(items []config.WatchlistItem) *StaticProvider {
	p := &StaticProvider{items: make(map[string]Fundamentals, len(items))}
	for _, it := range items {
		p.items[strings.ToUpper(it.Symbol)] = Fundamentals{
			Industry:      it.Industry,
			PE:            it.PE,
			PB:            it.PB,
			ROE:           it.ROE,
			RevenueGrowth: it.RevenueGrowth,
			RDRatio:       it.RDRatio,
		}
	}
	return p
}

// Fetch returns the configured fundamentals, or an empty record for an
// unknown symbol.
func (p *StaticProvider) Fetch(_ context.Context, symbol string) (Fundamentals, error) {
	return p.items[strings.ToUpper(symbol)], nil
}
