package models

import "time"

// PriceBar is one daily OHLCV session for a ticker
type PriceBar struct {
	Ticker    string    `db:"ticker" json:"ticker"`
	Date      time.Time `db:"date" json:"date"`
	Open      float64   `db:"open" json:"open"`
	High      float64   `db:"high" json:"high"`
	Low       float64   `db:"low" json:"low"`
	Close     float64   `db:"close" json:"close"`
	Volume    float64   `db:"volume" json:"volume"`
	AdjClose  float64   `db:"adj_close" json:"adj_close"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
