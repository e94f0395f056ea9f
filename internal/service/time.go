package service

import (
	"log"
	"time"
)

// slowOpThreshold is the soft latency budget. Exceeding it logs a warning
// after the fact; nothing is ever cancelled because of it.
const slowOpThreshold = 300 * time.Millisecond

// logSlow is meant to be deferred at the top of a public service operation.
func logSlow(op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowOpThreshold {
		log.Printf("WARN: %s took %s (budget %s)", op, elapsed, slowOpThreshold)
	}
}

// sameInstantSecond reports whether two timestamps represent the same
// second-level instant. Clients round or truncate sub-second precision when
// serializing, so millisecond components are ignored; a difference of one
// full second or more is a real mismatch.
func sameInstantSecond(a, b time.Time) bool {
	return a.UTC().Truncate(time.Second).Equal(b.UTC().Truncate(time.Second))
}

// sameUTCDay reports whether two instants fall on the same UTC calendar day.
func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// weekBounds returns the Monday 00:00 UTC start and Sunday end of the week
// containing now. AddDate is used so month/year boundaries stay safe.
func weekBounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // treat Sunday as day 7 so Mon=1..Sun=7
	}
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
	end = start.AddDate(0, 0, 6)
	return start, end
}
