package model

// AdherenceStats is the pair the dashboard renders. AdherenceRate is the
// unrounded percentage of active medications taken today; rounding is the
// client's concern. Streak counts consecutive perfect days before today.
type AdherenceStats struct {
	AdherenceRate float64 `json:"adherence_rate"`
	Streak        int     `json:"streak"`
}
