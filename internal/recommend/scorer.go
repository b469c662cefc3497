// Package recommend ranks catalog workers for a customer from their booking history.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/spigell/worker-finder/internal/marketplace"
)

const (
	professionWeight = 40
	ratingWeight     = 30
	priceWeight      = 20
	locationWeight   = 10
	diversityBonus   = 5

	// baselineRating is assumed for every worker; real ratings are not consulted.
	baselineRating  = 3
	maxRating       = 5
	highRatingFloor = 4

	maxReasons = 2
	// Limit is the number of recommendations returned.
	Limit = 6
)

const (
	ReasonHighlyRated = "Highly rated professional"
	ReasonPricing     = "Competitive pricing"
	ReasonArea        = "In your preferred area"
	ReasonExplore     = "Explore new services"
)

// ScoredWorker is a catalog worker with its match score and up to two reasons.
type ScoredWorker struct {
	marketplace.Worker
	Score   float64
	Reasons []string
}

// MatchScore is the score rounded for display.
func (s ScoredWorker) MatchScore() int {
	return int(math.Round(s.Score))
}

// HiredBeforeReason is the reason given when the profession appears in the history.
func HiredBeforeReason(profession string) string {
	return fmt.Sprintf("You've hired %ss before", profession)
}

// Recommend scores every worker against the booking history and returns the best Limit,
// highest score first. Equal scores keep catalog order. Inputs are not modified.
func Recommend(bookings []marketplace.Booking, workers []marketplace.Worker) []ScoredWorker {
	if len(workers) == 0 {
		return []ScoredWorker{}
	}

	professions, locations := history(bookings)
	avgPrice := averageCharges(workers)

	scored := make([]ScoredWorker, 0, len(workers))
	for _, worker := range workers {
		scored = append(scored, score(worker, professions, locations, avgPrice))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > Limit {
		scored = scored[:Limit]
	}

	return scored
}

func score(worker marketplace.Worker, professions, locations map[string]struct{}, avgPrice float64) ScoredWorker {
	var total float64
	reasons := make([]string, 0, 4)

	_, hiredBefore := professions[worker.Profession]
	if hiredBefore {
		total += professionWeight
		reasons = append(reasons, HiredBeforeReason(worker.Profession))
	}

	total += float64(baselineRating) / maxRating * ratingWeight
	if baselineRating >= highRatingFloor {
		reasons = append(reasons, ReasonHighlyRated)
	}

	if worker.Charges <= avgPrice {
		total += priceWeight
		reasons = append(reasons, ReasonPricing)
	}

	if _, ok := locations[worker.Location]; ok {
		total += locationWeight
		reasons = append(reasons, ReasonArea)
	}

	if !hiredBefore {
		total += diversityBonus
		reasons = append(reasons, ReasonExplore)
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}

	return ScoredWorker{Worker: worker, Score: total, Reasons: reasons}
}

// history collects the professions and locations of previously booked workers.
// Bookings without an embedded worker or with empty fields are skipped.
func history(bookings []marketplace.Booking) (map[string]struct{}, map[string]struct{}) {
	professions := make(map[string]struct{})
	locations := make(map[string]struct{})

	for _, booking := range bookings {
		if booking.Worker == nil {
			continue
		}
		if booking.Worker.Profession != "" {
			professions[booking.Worker.Profession] = struct{}{}
		}
		if booking.Worker.Location != "" {
			locations[booking.Worker.Location] = struct{}{}
		}
	}

	return professions, locations
}

func averageCharges(workers []marketplace.Worker) float64 {
	if len(workers) == 0 {
		return 0
	}

	var sum float64
	for _, worker := range workers {
		sum += worker.Charges
	}

	return sum / float64(len(workers))
}
