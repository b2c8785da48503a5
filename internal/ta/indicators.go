package ta

import "math"

func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMASeries returns the simple moving average; positions before the first
// full window are NaN.
func SMASeries(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RSISeries computes the 14-style RSI with Wilder smoothing. Positions with
// insufficient history are NaN; output values lie in [0, 100].
func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := make([]float64, len(closes))
	for i := range series {
		series[i] = math.NaN()
	}

	var gainSum float64
	var lossSum float64
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
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
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

// MACDSeries returns the MACD and signal lines for the 12/26/9 EMA
// convention (or whatever periods are supplied).
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
	signalLine := EMASeries(macdLine, signal)
	return macdLine, signalLine
}

// RecentHigh returns the maximum of values[len-lookback-1 : len-1], i.e. the
// highest value over the lookback window excluding the last element. Returns
// NaN when there is not enough history.
func RecentHigh(values []float64, lookback int) float64 {
	if len(values) < lookback+1 {
		return math.NaN()
	}
	high := math.Inf(-1)
	for _, v := range values[len(values)-lookback-1 : len(values)-1] {
		if v > high {
			high = v
		}
	}
	return high
}

// VolumeSpike reports whether the last volume exceeds multiple times its
// period-bar simple average.
func VolumeSpike(volumes []float64, period int, multiple float64) bool {
	ma := SMASeries(volumes, period)
	if ma == nil {
		return false
	}
	last := ma[len(ma)-1]
	if math.IsNaN(last) || last == 0 {
		return false
	}
	return volumes[len(volumes)-1] > multiple*last
}
