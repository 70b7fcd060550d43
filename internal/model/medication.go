package model

import (
	"time"

	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyDaily      Frequency = "Daily"
	FrequencyTwiceDaily Frequency = "Twice Daily"
	FrequencyWeekly     Frequency = "Weekly"
	FrequencyMonthly    Frequency = "Monthly"
	FrequencyAsNeeded   Frequency = "As Needed"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyTwiceDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	}
	return false
}

type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "Morning"
	TimeOfDayAfternoon TimeOfDay = "Afternoon"
	TimeOfDayEvening   TimeOfDay = "Evening"
	TimeOfDayBeforeBed TimeOfDay = "Before Bed"
	TimeOfDayWithMeals TimeOfDay = "With Meals"
)

func (t TimeOfDay) Valid() bool {
	switch t {
	case TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayBeforeBed, TimeOfDayWithMeals:
		return true
	}
	return false
}

// HistoryEntry records whether a medication was consumed on a past day.
// A medication carries at most one entry per day.
type HistoryEntry struct {
	Date     Day  `json:"date"`
	Consumed bool `json:"consumed"`
}

// Medication is a tracked medication. Frequency and TimeOfDay are advisory
// labels; adherence is a single daily boolean regardless of either.
type Medication struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Dosage        string         `json:"dosage"`
	Frequency     Frequency      `json:"frequency"`
	TimeOfDay     TimeOfDay      `json:"time_of_day"`
	StartDate     Day            `json:"start_date"`
	EndDate       *Day           `json:"end_date"`
	Indefinite    bool           `json:"indefinite"`
	ConsumedToday bool           `json:"consumed_today"`
	History       []HistoryEntry `json:"history"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ActiveOn reports whether the medication's start/end window includes day d.
func (m *Medication) ActiveOn(d Day) bool {
	if d.Before(m.StartDate) {
		return false
	}
	if m.Indefinite || m.EndDate == nil {
		return true
	}
	return !d.After(*m.EndDate)
}

// HistoryOn returns the entry recorded for day d, if any.
func (m *Medication) HistoryOn(d Day) (HistoryEntry, bool) {
	for _, e := range m.History {
		if e.Date == d {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// Clone returns a deep copy; the store hands copies out so callers never hold
// mutable references into the collection.
func (m *Medication) Clone() *Medication {
	c := *m
	if m.EndDate != nil {
		end := *m.EndDate
		c.EndDate = &end
	}
	c.History = make([]HistoryEntry, len(m.History))
	copy(c.History, m.History)
	return &c
}

type CreateMedicationRequest struct {
	Name       string    `json:"name" binding:"required"`
	Dosage     string    `json:"dosage" binding:"required"`
	Frequency  Frequency `json:"frequency" binding:"required,oneof=Daily 'Twice Daily' Weekly Monthly 'As Needed'"`
	TimeOfDay  TimeOfDay `json:"time_of_day" binding:"required,oneof=Morning Afternoon Evening 'Before Bed' 'With Meals'"`
	StartDate  string    `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string    `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Indefinite bool      `json:"indefinite"`
}
