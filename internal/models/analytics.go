package models

// Percentiles is a generic struct for storing percentiles for any distribution of data.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P99 float64 `json:"p99"`
}

// QueueAnalytics summarizes the questions asked in a queue.
type QueueAnalytics struct {
	// TimeToHelped is the delta, in seconds, between a question being created and a staff member
	// starting to help. Questions that were never helped are left out.
	TimeToHelped []int `json:"-"`

	TimeToHelpedPercentiles Percentiles `json:"timeToHelped"`

	StudentsHelped  []string `json:"studentsHelped"`
	StudentsWaiting []string `json:"studentsWaiting"`
	StudentsNoShow  []string `json:"studentsNoShow"`
}
