package model

import "time"

// User is the per-user quota record.
type User struct {
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username,omitempty"`
	FullName      string    `json:"full_name,omitempty"`
	IsPremium     bool      `json:"is_premium"`
	PremiumExpiry *Date     `json:"premium_expiry,omitempty"`
	DailyCount    int       `json:"daily_count"`
	LastReset     Date      `json:"last_reset"`
	TotalEdits    int       `json:"total_edits"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Profile carries the optional display fields recorded on first contact.
type Profile struct {
	Username string
	FullName string
}

// PremiumActive reports whether the stored premium flag is still in force on
// the given day. The expiry day itself is included.
func (u *User) PremiumActive(today Date) bool {
	if !u.IsPremium || u.PremiumExpiry == nil {
		return false
	}
	return !u.PremiumExpiry.Before(today)
}

// DailyCountOn returns the daily counter as it stands on the given day. A
// record last reset on another day has consumed nothing yet today.
func (u *User) DailyCountOn(today Date) int {
	if u.LastReset != today {
		return 0
	}
	return u.DailyCount
}

// EditEvent is one entry of the append-only usage log.
type EditEvent struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Category  string    `json:"category"`
	Tag       string    `json:"tag"`
	Day       Date      `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// Edit event categories.
const (
	CategoryFilter        = "filter"
	CategoryAIAnalysis    = "ai_analysis"
	CategoryAICaptions    = "ai_captions"
	CategoryAISuggestions = "ai_suggestions"
)

// Stats holds the aggregate counters shown to administrators.
type Stats struct {
	TotalUsers   int `json:"total_users"`
	PremiumUsers int `json:"premium_users"`
	TotalEdits   int `json:"total_edits"`
	TodayEdits   int `json:"today_edits"`
}
