package domain

import "time"

// Candle is one OHLCV bar of the candle series.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}

// Quote is the latest quote snapshot for the tracked security.
// Zero values mean the upstream did not report the field.
type Quote struct {
	Name          string    `json:"name"`
	NameEN        string    `json:"name_en,omitempty"`
	Code          string    `json:"code"`
	Price         float64   `json:"current_price"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_percent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        float64   `json:"volume"`
	Turnover      float64   `json:"turnover"`
	MarketCap     float64   `json:"market_cap"`
	PE            float64   `json:"pe_ratio"`
	PB            float64   `json:"pb_ratio"`
	High52W       float64   `json:"52w_high"`
	Low52W        float64   `json:"52w_low"`
	DividendYield float64   `json:"dividend_yield"`
	TurnoverRate  float64   `json:"turnover_rate"`
	Amplitude     float64   `json:"amplitude"`
	TotalShares   float64   `json:"total_shares"`
	FloatShares   float64   `json:"float_shares"`
	NAVPerShare   float64   `json:"nav_per_share"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Candle periods accepted by the candle endpoint.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

var SupportedPeriods = []string{PeriodDay, PeriodWeek, PeriodMonth}

const (
	DefaultCandleCount = 60
	MinCandleCount     = 10
	MaxCandleCount     = 1500
)

// ValidPeriod reports whether p is a supported candle period.
func ValidPeriod(p string) bool {
	for _, sp := range SupportedPeriods {
		if p == sp {
			return true
		}
	}
	return false
}

// ClampCandleCount bounds n to the accepted candle count range.
func ClampCandleCount(n int) int {
	if n < MinCandleCount {
		return MinCandleCount
	}
	if n > MaxCandleCount {
		return MaxCandleCount
	}
	return n
}
