package indicator

import "github.com/newthinker/quorum/internal/core"

// AlphaWindow is the number of bars the excess return is measured over.
const AlphaWindow = 20

// Alpha returns the stock's trailing AlphaWindow-bar return minus the
// benchmark's return between the same two calendar dates, in percent.
// ok is false when either endpoint is missing from the benchmark.
func Alpha(bars, benchmark []core.PriceBar) (float64, bool) {
	if len(bars) < AlphaWindow+1 || len(benchmark) == 0 {
		return 0, false
	}
	end := bars[len(bars)-1]
	start := bars[len(bars)-1-AlphaWindow]
	if start.Close <= 0 {
		return 0, false
	}

	byDate := make(map[string]float64, len(benchmark))
	for _, b := range benchmark {
		byDate[b.Date.Format("2006-01-02")] = b.Close
	}
	bStart, ok1 := byDate[start.Date.Format("2006-01-02")]
	bEnd, ok2 := byDate[end.Date.Format("2006-01-02")]
	if !ok1 || !ok2 || bStart <= 0 {
		return 0, false
	}

	stockRet := (end.Close/start.Close - 1) * 100
	benchRet := (bEnd/bStart - 1) * 100
	return stockRet - benchRet, true
}
