// Package utils provides shared utility functions.
package utils

import (
	"time"
)

// NYSELocation is the timezone for US equity and option markets.
var NYSELocation *time.Location

func init() {
	var err error
	NYSELocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to fixed EST; close enough for status display.
		NYSELocation = time.FixedZone("EST", -5*60*60)
	}
}

// MarketStatus describes the current trading session.
type MarketStatus string

const (
	MarketClosed  MarketStatus = "CLOSED"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketOpen    MarketStatus = "OPEN"
)

// GetMarketStatus returns the current US equity market status. Regular
// session is 9:30-16:00 ET; pre-market display starts at 4:00 ET. Exchange
// holidays are not tracked.
func GetMarketStatus(now time.Time) MarketStatus {
	now = now.In(NYSELocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosed
	}

	timeMinutes := now.Hour()*60 + now.Minute()

	// Pre-market: 4:00 - 9:30
	if timeMinutes >= 240 && timeMinutes < 570 {
		return MarketPreOpen
	}
	// Regular session: 9:30 - 16:00
	if timeMinutes >= 570 && timeMinutes < 960 {
		return MarketOpen
	}
	return MarketClosed
}

// IsMarketOpen returns true if the regular session is open now.
func IsMarketOpen() bool {
	return GetMarketStatus(time.Now()) == MarketOpen
}

// NextMarketOpen returns the next regular session opening time after now.
func NextMarketOpen(now time.Time) time.Time {
	now = now.In(NYSELocation)
	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, NYSELocation)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
