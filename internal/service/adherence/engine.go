// Package adherence computes adherence statistics over the medication
// collection. Everything here is a pure function of the collection and a
// reference day; the store decides what "today" is.
package adherence

import "github.com/jwalitptl/medtrack-api/internal/model"

// streakWindow caps how far back the streak scan looks.
const streakWindow = 30

// TodaysAdherence returns the unrounded percentage of medications active on
// today whose dose is marked taken. A day with no active medications scores 0.
func TodaysAdherence(meds []*model.Medication, today model.Day) float64 {
	var active, consumed int
	for _, m := range meds {
		if !m.ActiveOn(today) {
			continue
		}
		active++
		if m.ConsumedToday {
			consumed++
		}
	}
	if active == 0 {
		return 0
	}
	return 100 * float64(consumed) / float64(active)
}

// CurrentStreak counts consecutive perfect days immediately before today,
// scanning backward up to streakWindow days. A day is judged against the
// medications active on that day, not today; a day with none active is
// neutral and neither breaks nor extends the streak. Today is still in
// progress and never counted.
func CurrentStreak(meds []*model.Medication, today model.Day) int {
	if len(meds) == 0 {
		return 0
	}

	streak := 0
	for i := 1; i <= streakWindow; i++ {
		d := today.AddDays(-i)
		perfect, hasActive := perfectDay(meds, d)
		if !hasActive {
			continue
		}
		if !perfect {
			break
		}
		streak++
	}
	return streak
}

// perfectDay reports whether every medication active on d has a consumed
// history entry for d. A missing entry counts as not taken.
func perfectDay(meds []*model.Medication, d model.Day) (perfect, hasActive bool) {
	perfect = true
	for _, m := range meds {
		if !m.ActiveOn(d) {
			continue
		}
		hasActive = true
		if e, ok := m.HistoryOn(d); !ok || !e.Consumed {
			perfect = false
		}
	}
	return perfect && hasActive, hasActive
}

// Stats bundles both dashboard numbers.
func Stats(meds []*model.Medication, today model.Day) model.AdherenceStats {
	return model.AdherenceStats{
		AdherenceRate: TodaysAdherence(meds, today),
		Streak:        CurrentStreak(meds, today),
	}
}
