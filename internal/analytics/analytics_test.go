package analytics

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"helpme/internal/models"
)

func createQuestion(userID int, status models.QuestionStatus, startTime time.Time, createOffset int, helpOffset int) *models.Question {
	question := &models.Question{
		Status:    status,
		CreatorID: fmt.Sprintf("%d", userID),
	}

	question.CreatedAt = startTime.Add(time.Duration(createOffset) * time.Second)
	if helpOffset != -1 {
		helpedAt := startTime.Add(time.Duration(helpOffset) * time.Second)
		question.HelpedAt = &helpedAt
	}

	return question
}

func createQuestions() []*models.Question {
	startTime := time.Now()

	return []*models.Question{
		// Helped
		createQuestion(1, models.StatusResolved, startTime, 0, 1),
		createQuestion(2, models.StatusResolved, startTime, 0, 5),
		createQuestion(3, models.StatusHelping, startTime, 0, 10),

		// Waiting
		createQuestion(4, models.StatusQueued, startTime, 4, -1),
		createQuestion(5, models.StatusPriorityQueued, startTime, 5, -1),
		createQuestion(6, models.StatusReQueueing, startTime, 0, -1),

		// No-show
		createQuestion(7, models.StatusCantFind, startTime, 0, -1),

		// Ignored
		createQuestion(8, models.StatusDrafting, startTime, 0, -1),
		createQuestion(9, models.StatusStale, startTime, 0, -1),

		// Waiting student who has already been helped, i.e. someone who asked again
		createQuestion(1, models.StatusQueued, startTime, 15, -1),
	}
}

func TestGenerateAnalyticsFromQuestions(t *testing.T) {
	analytics := GenerateAnalyticsFromQuestions(createQuestions())

	expectedStudentsHelped := []string{"1", "2", "3"}
	if !reflect.DeepEqual(analytics.StudentsHelped, expectedStudentsHelped) {
		t.Errorf("Expected students helped to be %v, got %v", expectedStudentsHelped, analytics.StudentsHelped)
	}

	expectedStudentsWaiting := []string{"4", "5", "6", "1"}
	if !reflect.DeepEqual(analytics.StudentsWaiting, expectedStudentsWaiting) {
		t.Errorf("Expected students waiting to be %v, got %v", expectedStudentsWaiting, analytics.StudentsWaiting)
	}

	expectedStudentsNoShow := []string{"7"}
	if !reflect.DeepEqual(analytics.StudentsNoShow, expectedStudentsNoShow) {
		t.Errorf("Expected students no-show to be %v, got %v", expectedStudentsNoShow, analytics.StudentsNoShow)
	}

	expectedTimeToHelped := []int{1, 5, 10}
	if !reflect.DeepEqual(analytics.TimeToHelped, expectedTimeToHelped) {
		t.Errorf("Expected time to helped to be %v, got %v", expectedTimeToHelped, analytics.TimeToHelped)
	}

	if !approximatelyEqual(analytics.TimeToHelpedPercentiles.P50, 5) {
		t.Errorf("Expected P50 to be 5, got %f", analytics.TimeToHelpedPercentiles.P50)
	}
}

func TestGenerateAnalyticsFromNoQuestions(t *testing.T) {
	analytics := GenerateAnalyticsFromQuestions(nil)

	if len(analytics.StudentsHelped) != 0 || len(analytics.StudentsWaiting) != 0 || len(analytics.StudentsNoShow) != 0 {
		t.Errorf("Expected empty analytics, got %+v", analytics)
	}
	if analytics.TimeToHelpedPercentiles != (models.Percentiles{}) {
		t.Errorf("Expected zero percentiles, got %+v", analytics.TimeToHelpedPercentiles)
	}
}

func approximatelyEqual(a float64, b float64) bool {
	return math.Abs(a-b) < 0.00001
}

func TestCalculatePercentiles(t *testing.T) {
	basicDistribution := []int{10, 2, 5}
	basicPercentiles := CalculatePercentiles(basicDistribution)
	expectedBasicPercentiles := &models.Percentiles{
		P50: 5,
		P90: 9,
		P99: 9.9,
	}

	if !approximatelyEqual(basicPercentiles.P50, expectedBasicPercentiles.P50) {
		t.Errorf("Expected P50 to be %f, got %f", expectedBasicPercentiles.P50, basicPercentiles.P50)
	}
	if !approximatelyEqual(basicPercentiles.P90, expectedBasicPercentiles.P90) {
		t.Errorf("Expected P90 to be %f, got %f", expectedBasicPercentiles.P90, basicPercentiles.P90)
	}
	if !approximatelyEqual(basicPercentiles.P99, expectedBasicPercentiles.P99) {
		t.Errorf("Expected P99 to be %f, got %f", expectedBasicPercentiles.P99, basicPercentiles.P99)
	}

	if !reflect.DeepEqual(basicDistribution, []int{10, 2, 5}) {
		t.Errorf("Expected input to be left unsorted, got %v", basicDistribution)
	}
}

func TestPairCheckInTimes(t *testing.T) {
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return start.Add(time.Duration(minutes) * time.Minute) }

	events := []*models.Event{
		{Type: models.EventTACheckedOut, UserID: "ta1", QueueID: "q1", Time: at(60)},
		{Type: models.EventTACheckedIn, UserID: "ta1", QueueID: "q1", Time: at(0)},
		{Type: models.EventTACheckedIn, UserID: "ta2", QueueID: "q1", Time: at(30)},
		// Check-out without a check-in.
		{Type: models.EventTACheckedOut, UserID: "ta3", QueueID: "q2", Time: at(10)},
	}

	checkout := at(60)
	expected := []models.TACheckinPair{
		{UserID: "ta1", QueueID: "q1", CheckinTime: at(0), CheckoutTime: &checkout},
		{UserID: "ta2", QueueID: "q1", CheckinTime: at(30), InProgress: true},
	}

	pairs := PairCheckInTimes(events)
	if !reflect.DeepEqual(pairs, expected) {
		t.Errorf("Expected pairs to be %+v, got %+v", expected, pairs)
	}
}
