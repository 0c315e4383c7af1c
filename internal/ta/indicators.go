// Package ta computes the technical indicators quoted in analysis reports.
package ta

import (
	"math"

	"tickerdesk/internal/domain"
)

// Snapshot holds the latest value of each indicator. NaN means the series was
// too short to compute it.
type Snapshot struct {
	MA5        float64
	MA20       float64
	RSI14      float64
	MACD       float64
	MACDSignal float64
	BollUpper  float64
	BollMiddle float64
	BollLower  float64
}

// Summarize computes indicators over candle closes, oldest first.
func Summarize(candles []domain.Candle) Snapshot {
	closes := make([]float64, len(candles))
	for i, k := range candles {
		closes[i] = k.Close
	}

	s := Snapshot{
		MA5:        last(SMASeries(closes, 5)),
		MA20:       last(SMASeries(closes, 20)),
		RSI14:      last(RSISeries(closes, 14)),
		MACD:       math.NaN(),
		MACDSignal: math.NaN(),
	}
	// MACD needs a warm slow EMA to mean anything.
	if len(closes) >= 26 {
		macd, signal := MACDSeries(closes, 12, 26, 9)
		s.MACD, s.MACDSignal = last(macd), last(signal)
	}
	mid, upper, lower := BollingerSeries(closes, 20, 2)
	s.BollMiddle, s.BollUpper, s.BollLower = last(mid), last(upper), last(lower)
	return s
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// SMASeries is the simple moving average; entries before the first full
// window are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	if period <= 1 {
		copy(out, values)
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSISeries uses Wilder smoothing. Entries before period are NaN.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) <= period {
		return nil
	}
	series := make([]float64, len(closes))
	for i := range series {
		series[i] = math.NaN()
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(delta, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-delta, 0)) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func MACDSeries(values []float64, fast, slow, signal int) ([]float64, []float64) {
	if len(values) == 0 {
		return nil, nil
	}
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	return macdLine, EMASeries(macdLine, signal)
}

// BollingerSeries returns middle, upper and lower bands.
func BollingerSeries(values []float64, period int, stdDevs float64) ([]float64, []float64, []float64) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	middle := make([]float64, len(values))
	upper := make([]float64, len(values))
	lower := make([]float64, len(values))
	for i := range values {
		middle[i], upper[i], lower[i] = math.NaN(), math.NaN(), math.NaN()
	}
	if period <= 0 {
		return middle, upper, lower
	}
	for i := period - 1; i < len(values); i++ {
		mean, std := meanStd(values[i-period+1 : i+1])
		middle[i] = mean
		upper[i] = mean + stdDevs*std
		lower[i] = mean - stdDevs*std
	}
	return middle, upper, lower
}
