package backtest

import (
	"math"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Execution cost schedule
const (
	EquityCommissionPerShare = 0.005
	EquityMinCommission      = 1.0
	CommodityFundingRate     = 0.00008
)

// Trap order offsets in ATR units
const (
	TrapStopATR  = 0.02
	TrapLimitATR = 0.05
)

// PendingOrder is a stop-limit entry valid for the next bar only
type PendingOrder struct {
	BuyStop float64 `json:"buy_stop"`
	Limit   float64 `json:"limit"`
}

// Simulator holds the execution rules for one asset profile
type Simulator struct {
	assetClass         models.AssetClass
	commissionPerShare float64
	minCommission      float64
	fundingRateDaily   float64
}

// NewSimulator derives commission and funding rules from the profile's asset class
func NewSimulator(profile models.AssetProfile) *Simulator {
	s := &Simulator{assetClass: profile.AssetClass}
	switch profile.AssetClass {
	case models.AssetClassEquity:
		s.commissionPerShare = EquityCommissionPerShare
		s.minCommission = EquityMinCommission
	case models.AssetClassCommodity:
		s.fundingRateDaily = CommodityFundingRate
	}
	return s
}

// WholeUnits reports whether positions are sized in whole shares
func (s *Simulator) WholeUnits() bool {
	return s.assetClass == models.AssetClassEquity
}

// FundingRate is the daily overnight funding rate
func (s *Simulator) FundingRate() float64 {
	return s.fundingRateDaily
}

// TrapLevels places the buy-stop just above the signal bar's high and the limit above that
func (s *Simulator) TrapLevels(high, atr float64) PendingOrder {
	buyStop := high + TrapStopATR*atr
	return PendingOrder{BuyStop: buyStop, Limit: buyStop + TrapLimitATR*atr}
}

// CheckEntry decides whether the order fills on a bar. A bar that opens above
// the limit never fills, nor does one whose high stays below the buy-stop.
// Otherwise the fill is the worse of the open and the buy-stop.
func (s *Simulator) CheckEntry(open, high float64, order PendingOrder) (float64, bool) {
	if open > order.Limit {
		return 0, false
	}
	if high < order.BuyStop {
		return 0, false
	}
	fill := math.Max(open, order.BuyStop)
	if fill > order.Limit {
		return 0, false
	}
	return fill, true
}

// Commission for a position of size units
func (s *Simulator) Commission(size float64) float64 {
	if s.commissionPerShare == 0 && s.minCommission == 0 {
		return 0
	}
	return math.Max(s.minCommission, size*s.commissionPerShare)
}

// DailyFunding is one night's funding charge on the position's cost basis
func (s *Simulator) DailyFunding(entryPrice, size float64) float64 {
	return entryPrice * size * s.fundingRateDaily
}
