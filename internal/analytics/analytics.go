package analytics

import (
	"sort"

	"helpme/internal/models"
)

// GenerateAnalyticsFromQuestions summarizes the questions of one queue. Does not need/use any
// database connection.
func GenerateAnalyticsFromQuestions(questions []*models.Question) *models.QueueAnalytics {
	analytics := &models.QueueAnalytics{
		TimeToHelped: make([]int, 0),

		StudentsHelped:  make([]string, 0),
		StudentsWaiting: make([]string, 0),
		StudentsNoShow:  make([]string, 0),
	}

	for _, q := range questions {
		switch q.Status {
		case models.StatusResolved, models.StatusHelping:
			if q.HelpedAt == nil {
				continue
			}
			analytics.StudentsHelped = append(analytics.StudentsHelped, q.CreatorID)

			timeToHelped := q.HelpedAt.Sub(q.CreatedAt).Seconds()
			analytics.TimeToHelped = append(analytics.TimeToHelped, int(timeToHelped))
		case models.StatusQueued, models.StatusPriorityQueued, models.StatusReQueueing:
			analytics.StudentsWaiting = append(analytics.StudentsWaiting, q.CreatorID)
		case models.StatusCantFind:
			analytics.StudentsNoShow = append(analytics.StudentsNoShow, q.CreatorID)
		}
	}

	analytics.TimeToHelpedPercentiles = CalculatePercentiles(analytics.TimeToHelped)
	return analytics
}

// CalculatePercentiles returns the 50th, 90th and 99th percentiles of data, interpolating linearly
// between ranks. data is not modified.
func CalculatePercentiles(data []int) models.Percentiles {
	if len(data) == 0 {
		return models.Percentiles{}
	}

	sorted := append([]int(nil), data...)
	sort.Ints(sorted)

	calculatePercentile := func(percentile float64) float64 {
		rank := percentile / 100 * float64(len(sorted)-1)
		rankInt := int(rank)

		if rank == float64(rankInt) {
			return float64(sorted[rankInt])
		}

		baseline := sorted[rankInt]
		interpolation := (rank - float64(rankInt)) * float64(sorted[rankInt+1]-sorted[rankInt])

		return float64(baseline) + interpolation
	}

	return models.Percentiles{
		P50: calculatePercentile(50),
		P90: calculatePercentile(90),
		P99: calculatePercentile(99),
	}
}

// PairCheckInTimes matches each staff member's check-in events with the check-out that follows
// them. A check-in with no check-out yet is reported in progress; a check-out with no preceding
// check-in is dropped. Pairs are returned in check-in order.
func PairCheckInTimes(events []*models.Event) []models.TACheckinPair {
	sorted := append([]*models.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	pairs := make([]models.TACheckinPair, 0)
	open := make(map[string]int)
	for _, e := range sorted {
		switch e.Type {
		case models.EventTACheckedIn:
			// A second check-in closes nothing; the earlier one is left without a check-out.
			open[e.UserID] = len(pairs)
			pairs = append(pairs, models.TACheckinPair{
				UserID:      e.UserID,
				QueueID:     e.QueueID,
				CheckinTime: e.Time,
			})
		case models.EventTACheckedOut:
			i, ok := open[e.UserID]
			if !ok {
				continue
			}
			at := e.Time
			pairs[i].CheckoutTime = &at
			delete(open, e.UserID)
		}
	}

	for _, i := range open {
		pairs[i].InProgress = true
	}
	return pairs
}
