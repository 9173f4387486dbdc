// Package market holds the domain types shared between ingestion, storage,
// and analytics layers.
package market

import "time"

// Tick is a single trade event. Identity is (Ts, Symbol): the store keeps at
// most one tick per identity and timestamps are exchange event time.
type Tick struct {
	Symbol string
	Price  float64
	Size   float64
	Ts     time.Time
}

// TsMilli returns the event time as milliseconds since epoch, the unit the
// upstream feed and the persisted schema use.
func (t Tick) TsMilli() int64 {
	return t.Ts.UnixMilli()
}
