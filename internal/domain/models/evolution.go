package models

import "time"

// EvolutionWindow is how far back the activity histogram looks.
const EvolutionWindow = 30 * 24 * time.Hour

// Histogram maps a formatted day to the number of items created that day.
// Only days with at least one item are present.
type Histogram map[string]int

// Total returns the sum of all buckets.
func (h Histogram) Total() int {
	n := 0
	for _, v := range h {
		n += v
	}
	return n
}

// Evolution is the 30-day activity histogram for the three feed kinds.
type Evolution struct {
	Contacts  Histogram `json:"contacts"`
	Projects  Histogram `json:"projects"`
	BlogPosts Histogram `json:"blogPosts"`
}

// EmptyEvolution returns an Evolution with three empty, non-nil maps.
func EmptyEvolution() Evolution {
	return Evolution{
		Contacts:  Histogram{},
		Projects:  Histogram{},
		BlogPosts: Histogram{},
	}
}
