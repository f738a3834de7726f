// Package inventory tracks coffee beans: what is on the shelf, how much
// is left, and how each bag has been rated.
package inventory

import (
	"errors"
	"time"
)

// Sentinel errors returned by the store.
var (
	ErrBeanNotFound = errors.New("bean not found")
	ErrBeanExists   = errors.New("bean already exists")
)

// Bean is one bag of coffee in the inventory.
type Bean struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Roaster    string     `json:"roaster,omitempty"`
	Origin     string     `json:"origin,omitempty"`
	RoastDate  *time.Time `json:"roast_date,omitempty"`
	WeightG    float64    `json:"weight_g"`
	RemainingG float64    `json:"remaining_g"`
	Rating     int        `json:"rating,omitempty"` // 0 = unrated, else 1-5
	CreatedAt  time.Time  `json:"created_at"`
}

// DaysSinceRoast returns the bean's age in days, or -1 when the roast
// date is unknown.
func (b Bean) DaysSinceRoast(now time.Time) int {
	if b.RoastDate == nil {
		return -1
	}
	return int(now.Sub(*b.RoastDate).Hours() / 24)
}

// Stats is the inventory digest shown by the beans stats command.
type Stats struct {
	BeanCount       int     `json:"bean_count"`
	TotalRemainingG float64 `json:"total_remaining_g"`
	TotalConsumedG  float64 `json:"total_consumed_g"`
	RatedCount      int     `json:"rated_count"`
	AverageRating   float64 `json:"average_rating,omitempty"`
}
