package indicator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/core"
)

// Status labels for trend and volume comparisons.
const (
	StatusAbove        = "above"
	StatusBelow        = "below"
	StatusInsufficient = "insufficient data"

	VolumeHigh   = "high" // 放量
	VolumeLow    = "low"  // 缩量
	VolumeNormal = "normal"
)

const (
	shortWindow     = 5
	longWindow      = 20
	rsiPeriod       = 14
	volumeLookback  = 10
	volumeThreshold = 0.20
	oversold        = 30.0
	overbought      = 70.0
)

// Snapshot is the technical picture of a symbol as of its latest bar.
// Nil indicator fields mean the series was too short to compute them.
type Snapshot struct {
	AsOf            time.Time     `json:"as_of"`
	CurrentPrice    float64       `json:"current_price"`
	MA5             *float64      `json:"ma5"`
	MA5Status       string        `json:"ma5_status"`
	MA20            *float64      `json:"ma20"`
	MA20Status      string        `json:"ma20_status"`
	VolumeStatus    string        `json:"volume_status"`
	VolumeChangePct *float64      `json:"volume_change_pct"`
	RSI14           *float64      `json:"rsi_14"`
	BollingerUpper  *float64      `json:"bollinger_upper"`
	BollingerMiddle *float64      `json:"bollinger_middle"`
	BollingerLower  *float64      `json:"bollinger_lower"`
	BandwidthPct    *float64      `json:"bandwidth_pct"`
	VWAP20          *float64      `json:"vwap_20"`
	Alpha           *float64      `json:"alpha"`
	Pattern         Pattern       `json:"k_line_pattern"`
	PatternSignal   PatternSignal `json:"pattern_signal"`
	HealthScore     int           `json:"health_score"`
	ActionSignal    core.Action   `json:"action_signal"`
}

// Analyze computes a Snapshot from ascending daily bars and an optional
// benchmark series. An empty series yields core.ErrDataUnavailable.
func Analyze(bars, benchmark []core.PriceBar) (*Snapshot, error) {
	bars = normalize(bars)
	if len(bars) == 0 {
		return nil, core.ErrDataUnavailable
	}
	benchmark = normalize(benchmark)

	last := bars[len(bars)-1]
	prices := closes(bars)

	s := &Snapshot{
		AsOf:         last.Date,
		CurrentPrice: last.Close,
		MA5Status:    StatusInsufficient,
		MA20Status:   StatusInsufficient,
		VolumeStatus: StatusInsufficient,
	}

	if ma, ok := TrailingMean(prices, shortWindow); ok {
		s.MA5 = ptr(ma)
		s.MA5Status = position(last.Close, ma)
	}
	if ma, ok := TrailingMean(prices, longWindow); ok {
		s.MA20 = ptr(ma)
		s.MA20Status = position(last.Close, ma)
	}
	if rsi, ok := RSI(prices, rsiPeriod); ok {
		s.RSI14 = ptr(rsi)
	}
	if b, ok := Bollinger(prices, longWindow, 2); ok {
		s.BollingerUpper = ptr(b.Upper)
		s.BollingerMiddle = ptr(b.Middle)
		s.BollingerLower = ptr(b.Lower)
		s.BandwidthPct = ptr(b.BandwidthPct)
	}
	if vwap, ok := VWAP(bars, longWindow); ok {
		s.VWAP20 = ptr(vwap)
	}
	if alpha, ok := Alpha(bars, benchmark); ok {
		s.Alpha = ptr(alpha)
	}
	s.VolumeStatus, s.VolumeChangePct = volumeRegime(bars)

	s.Pattern = ClassifyBar(last)
	s.PatternSignal = s.Pattern.Signal()

	s.HealthScore = s.health()
	s.ActionSignal = core.ActionFromScore(s.HealthScore)
	return s, nil
}

func (s *Snapshot) health() int {
	score := 50

	switch s.MA20Status {
	case StatusAbove:
		score += 20
	case StatusBelow:
		score -= 20
	}
	switch s.MA5Status {
	case StatusAbove:
		score += 15
	case StatusBelow:
		score -= 15
	}

	if s.RSI14 != nil {
		switch rsi := *s.RSI14; {
		case rsi < oversold:
			score += 10
		case rsi > overbought:
			score -= 10
		default:
			score += 5
		}
	}

	switch s.VolumeStatus {
	case VolumeHigh:
		score += 10
	case VolumeLow:
		score -= 5
	}

	score += s.Pattern.HealthDelta()
	return core.ClampScore(score)
}

// volumeRegime compares the latest volume with the mean of the bars before it.
func volumeRegime(bars []core.PriceBar) (string, *float64) {
	if len(bars) < volumeLookback+1 {
		return StatusInsufficient, nil
	}
	vols := volumes(bars)
	prior := vols[len(vols)-1-volumeLookback : len(vols)-1]
	avg, _ := TrailingMean(prior, volumeLookback)
	if avg <= 0 {
		return StatusInsufficient, nil
	}

	change := vols[len(vols)-1]/avg - 1
	pct := change * 100
	switch {
	case change > volumeThreshold:
		return VolumeHigh, &pct
	case change < -volumeThreshold:
		return VolumeLow, &pct
	default:
		return VolumeNormal, &pct
	}
}

func position(price, mean float64) string {
	if price > mean {
		return StatusAbove
	}
	return StatusBelow
}

// normalize returns an ascending, date-unique copy. The last bar wins on a
// duplicate date.
func normalize(bars []core.PriceBar) []core.PriceBar {
	if len(bars) == 0 {
		return nil
	}
	out := make([]core.PriceBar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	uniq := out[:0]
	for _, b := range out {
		if n := len(uniq); n > 0 && uniq[n-1].Date.Equal(b.Date) {
			uniq[n-1] = b
			continue
		}
		uniq = append(uniq, b)
	}
	return uniq
}

func ptr(v float64) *float64 { return &v }

// Summary renders the snapshot as a compact text block for prompts.
func (s *Snapshot) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- As of: %s, close %.2f\n", s.AsOf.Format("2006-01-02"), s.CurrentPrice))
	sb.WriteString(fmt.Sprintf("- MA5: %s (%s), MA20: %s (%s)\n",
		fmtOpt(s.MA5), s.MA5Status, fmtOpt(s.MA20), s.MA20Status))
	sb.WriteString(fmt.Sprintf("- RSI14: %s\n", fmtOpt(s.RSI14)))
	sb.WriteString(fmt.Sprintf("- Bollinger: %s / %s / %s, bandwidth %s%%\n",
		fmtOpt(s.BollingerUpper), fmtOpt(s.BollingerMiddle), fmtOpt(s.BollingerLower), fmtOpt(s.BandwidthPct)))
	sb.WriteString(fmt.Sprintf("- VWAP20: %s\n", fmtOpt(s.VWAP20)))
	sb.WriteString(fmt.Sprintf("- Volume: %s (change %s%%)\n", s.VolumeStatus, fmtOpt(s.VolumeChangePct)))
	if s.Alpha != nil {
		sb.WriteString(fmt.Sprintf("- 20d alpha vs benchmark: %.2f%%\n", *s.Alpha))
	}
	sb.WriteString(fmt.Sprintf("- K-line: %s (%s)\n", s.Pattern, s.PatternSignal))
	sb.WriteString(fmt.Sprintf("- Health score: %d, signal %s\n", s.HealthScore, s.ActionSignal))
	return sb.String()
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
