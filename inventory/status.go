// Package inventory manages a producer's stock levels: listing and
// editing inventory entries and deriving the fill status shown
// alongside each one.
package inventory

// Status buckets an inventory level for display.
type Status string

const (
	// StatusLow means the available quantity is at or below the
	// minimum threshold.
	StatusLow Status = "low"
	// StatusMedium means the level is above the threshold but under
	// 40% of capacity.
	StatusMedium Status = "medium"
	// StatusHigh means the level is at or above 40% of capacity.
	StatusHigh Status = "high"
)

// mediumBand is the fraction of capacity below which stock reads as
// medium rather than high.
const mediumBand = 0.4

// DeriveStatus buckets an inventory level.
//
// Low wins over the capacity bands: a quantity at or below the
// minimum threshold is low even when the threshold sits high relative
// to capacity. A non-positive capacity cannot support a meaningful
// band, so it always reads as low.
func DeriveStatus(available, minThreshold, maxCapacity float64) Status {
	if maxCapacity <= 0 {
		return StatusLow
	}
	if available <= minThreshold {
		return StatusLow
	}
	if available < maxCapacity*mediumBand {
		return StatusMedium
	}
	return StatusHigh
}

// FillPercent returns how full the inventory is as a percentage of
// capacity, clamped to [0, 100]. A non-positive capacity yields 0
// rather than dividing by zero.
func FillPercent(available, maxCapacity float64) float64 {
	if maxCapacity <= 0 {
		return 0
	}
	percent := available / maxCapacity * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// Gauge is the precomputed display state for one inventory entry.
type Gauge struct {
	Status  Status
	Percent float64
}

// DeriveGauge combines DeriveStatus and FillPercent.
func DeriveGauge(available, minThreshold, maxCapacity float64) Gauge {
	return Gauge{
		Status:  DeriveStatus(available, minThreshold, maxCapacity),
		Percent: FillPercent(available, maxCapacity),
	}
}
