package strategy

import "github.com/markcheno/go-talib"

// 指标辅助函数：基于 talib 的薄封装，统一处理窗口不足与序列取尾。

// lastTwo returns the final two values of a series.
func lastTwo(series []float64) (prev, last float64, ok bool) {
	if len(series) < 2 {
		return 0, 0, false
	}
	return series[len(series)-2], series[len(series)-1], true
}

// crossBelow reports a downward crossing of level between two ticks.
func crossBelow(prev, last, level float64) bool {
	return prev >= level && last < level
}

// crossAbove reports an upward crossing of level between two ticks.
func crossAbove(prev, last, level float64) bool {
	return prev <= level && last > level
}

// crossOver reports a crosses above b between two ticks.
func crossOver(aPrev, aLast, bPrev, bLast float64) bool {
	return aPrev <= bPrev && aLast > bLast
}

// trueRange computes the TR series; the first element uses high-low only.
func trueRange(high, low, close []float64) []float64 {
	tr := make([]float64, len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := abs(high[i] - close[i-1])
		lc := abs(low[i] - close[i-1])
		tr[i] = max3(hl, hc, lc)
	}
	return tr
}

// emaSeries is exponential smoothing with alpha=2/(period+1), seeded from
// the first value (matches span-based smoothing without SMA seeding).
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rollingMax/Min over a trailing window, aligned to the input index.
func rollingMax(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i+1 < period {
			out[i] = 0
			continue
		}
		m := values[i]
		for j := i - period + 1; j <= i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

func rollingMin(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i+1 < period {
			out[i] = 0
			continue
		}
		m := values[i]
		for j := i - period + 1; j <= i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

func sma(values []float64, period int) []float64 {
	return talib.Sma(values, period)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
