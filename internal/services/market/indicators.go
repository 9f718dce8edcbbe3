package market

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dkoval/tradeloop/internal/domain"
)

// minCandlesForIndicators is driven by the slowest indicator (EMA50).
const minCandlesForIndicators = 50

// computeIndicators derives the indicator snapshot from candle history.
// These values are prompt context only; the agent does not trade on them
// directly.
func computeIndicators(candles []Candle) (domain.IndicatorSnapshot, error) {
	if len(candles) < minCandlesForIndicators {
		return domain.IndicatorSnapshot{}, errors.Errorf(
			"not enough candles for indicators: need %d, got %d", minCandlesForIndicators, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], _ = c.Close.Float64()
	}

	ema20 := lastValue(helper.ChanToSlice(trend.NewEmaWithPeriod[float64](20).Compute(helper.SliceToChan(closes))))
	ema50 := lastValue(helper.ChanToSlice(trend.NewEmaWithPeriod[float64](50).Compute(helper.SliceToChan(closes))))
	rsi14 := lastValue(helper.ChanToSlice(momentum.NewRsiWithPeriod[float64](14).Compute(helper.SliceToChan(closes))))

	macdChan, signalChan := trend.NewMacd[float64]().Compute(helper.SliceToChan(closes))
	// the signal channel must be drained or Compute blocks
	go func() {
		for range signalChan {
		}
	}()
	macd := lastValue(helper.ChanToSlice(macdChan))

	return domain.IndicatorSnapshot{
		RSI14: decimal.NewFromFloat(rsi14).Round(2),
		EMA20: decimal.NewFromFloat(ema20).Round(8),
		EMA50: decimal.NewFromFloat(ema50).Round(8),
		MACD:  decimal.NewFromFloat(macd).Round(8),
	}, nil
}

// neutralIndicators is the degraded snapshot used when indicator data is
// unavailable: RSI pinned to the midpoint, EMAs pinned to the last price.
func neutralIndicators(price decimal.Decimal) domain.IndicatorSnapshot {
	return domain.IndicatorSnapshot{
		RSI14:      decimal.NewFromInt(50),
		EMA20:      price,
		EMA50:      price,
		MACD:       decimal.Zero,
		IsDegraded: true,
	}
}

func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
