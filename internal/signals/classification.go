// Package signals scores enriched price frames into a composite momentum signal.
package signals

import "math"

// Classification is the discrete trading signal derived from a composite score
type Classification string

// Signal classifications
const (
	StrongBuy  Classification = "STRONG_BUY"
	Buy        Classification = "BUY"
	Neutral    Classification = "NEUTRAL"
	Sell       Classification = "SELL"
	StrongSell Classification = "STRONG_SELL"
)

// Classification thresholds in standard deviations
const (
	StrongBuyThreshold  = 2.0
	BuyThreshold        = 1.5
	SellThreshold       = -1.5
	StrongSellThreshold = -2.0
)

// Classify maps a composite score to a classification. NaN is NEUTRAL.
func Classify(score float64) Classification {
	switch {
	case math.IsNaN(score):
		return Neutral
	case score > StrongBuyThreshold:
		return StrongBuy
	case score > BuyThreshold:
		return Buy
	case score < StrongSellThreshold:
		return StrongSell
	case score < SellThreshold:
		return Sell
	default:
		return Neutral
	}
}

// IsBuy reports BUY or STRONG_BUY
func (c Classification) IsBuy() bool {
	return c == Buy || c == StrongBuy
}

// IsSell reports SELL or STRONG_SELL
func (c Classification) IsSell() bool {
	return c == Sell || c == StrongSell
}

// Value is the driving-signal encoding: 1 for buys, -1 for sells, 0 otherwise
func (c Classification) Value() float64 {
	switch {
	case c.IsBuy():
		return 1
	case c.IsSell():
		return -1
	default:
		return 0
	}
}
