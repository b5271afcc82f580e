package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/core"
)

const (
	defaultHistoryURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	defaultTimeout    = 10 * time.Second
	dailyKline        = "101"
)

// Eastmoney implements the Eastmoney collector for A-shares
type Eastmoney struct {
	client     *http.Client
	historyURL string
}

// New creates a new Eastmoney collector. A zero timeout selects the default.
func New(timeout time.Duration) *Eastmoney {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Eastmoney{
		client:     &http.Client{Timeout: timeout},
		historyURL: defaultHistoryURL,
	}
}

func (e *Eastmoney) Name() string {
	return "eastmoney"
}

func (e *Eastmoney) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketCNA}
}

// parseSymbol converts 600519.SH to (600519, 1) for Eastmoney API
// Shanghai = 1, Shenzhen = 0
func parseSymbol(symbol string) (code, market string) {
	parts := strings.Split(symbol, ".")
	if len(parts) != 2 {
		return symbol, "1"
	}

	code = parts[0]
	switch strings.ToUpper(parts[1]) {
	case "SZ":
		market = "0"
	default:
		market = "1"
	}
	return
}

// FetchHistory fetches forward-adjusted daily bars.
func (e *Eastmoney) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	code, market := parseSymbol(symbol)

	url := fmt.Sprintf("%s?secid=%s.%s&klt=%s&fqt=1&beg=%s&end=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56",
		e.historyURL, market, code, dailyKline,
		start.Format("20060102"),
		end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Data == nil || len(result.Data.Klines) == 0 {
		return nil, fmt.Errorf("no history for symbol: %s", symbol)
	}

	bars := make([]core.PriceBar, 0, len(result.Data.Klines))
	for _, line := range result.Data.Klines {
		bar, ok := parseKline(line)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// parseKline reads "date,open,close,high,low,volume".
func parseKline(line string) (core.PriceBar, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return core.PriceBar{}, false
	}

	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return core.PriceBar{}, false
	}
	var nums [4]float64
	for i := range nums {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return core.PriceBar{}, false
		}
		nums[i] = v
	}
	volume, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return core.PriceBar{}, false
	}

	return core.PriceBar{
		Date:   date,
		Open:   nums[0],
		Close:  nums[1],
		High:   nums[2],
		Low:    nums[3],
		Volume: volume,
	}, true
}

type historyResponse struct {
	Data *historyData `json:"data"`
}

type historyData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"`
}
