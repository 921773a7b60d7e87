package models

// Item is a catalog entry available for nomination. Immutable once loaded
// into the auction pool.
type Item struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	Team            string `json:"team,omitempty"`
	ExperienceYears int    `json:"experience_years,omitempty"`
}
