package marketdata

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"time"

	"strategy-research-lab/internal/domain"
	"strategy-research-lab/internal/storage"
)

// GenerateBars produces a synthetic daily bar series for tests and demo
// fixtures. The series is a pure function of (symbol, start, end): the
// price path, trust, and quality signals are derived from a hash-seeded
// recurrence, so repeated calls always yield identical bars. Weekends are
// skipped to mimic exchange calendars.
func GenerateBars(symbol string, start, end time.Time) []*domain.Bar {
	seed := seedFor(symbol)
	state := seed

	price := 50.0 + float64(seed%400)
	var bars []*domain.Bar

	for d := start.UTC(); !d.After(end.UTC()); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		state = next(state)
		// Daily move in [-4%, +4%] with a slight positive drift.
		move := (unit(state) - 0.48) * 0.08
		open := price
		close := open * (1 + move)

		state = next(state)
		spread := unit(state) * 0.02
		high := math.Max(open, close) * (1 + spread)
		low := math.Min(open, close) * (1 - spread)

		state = next(state)
		trust := 0.30 + unit(state)*0.65
		state = next(state)
		quality := 0.40 + unit(state)*0.60

		bars = append(bars, &domain.Bar{
			Symbol:      symbol,
			TimestampMs: d.UnixMilli(),
			Open:        open,
			High:        high,
			Low:         low,
			Close:       close,
			Trust:       trust,
			Quality:     math.Min(quality, 1.0),
		})
		price = close
	}
	return bars
}

// LoadFixtures populates a bar store with synthetic history for the given
// symbols and window.
func LoadFixtures(ctx context.Context, store storage.BarStore, symbols []string, start, end time.Time) error {
	for _, symbol := range symbols {
		bars := GenerateBars(symbol, start, end)
		if err := store.InsertBulk(ctx, bars); err != nil {
			return err
		}
	}
	return nil
}

// seedFor derives a stable 64-bit seed from the symbol name.
func seedFor(symbol string) uint64 {
	sum := sha256.Sum256([]byte(symbol))
	return binary.BigEndian.Uint64(sum[:8])
}

// next advances the recurrence (splitmix64 step).
func next(state uint64) uint64 {
	state += 0x9e3779b97f4a7c15
	z := state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// unit maps a state value to [0, 1).
func unit(state uint64) float64 {
	return float64(state>>11) / float64(1<<53)
}
