package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	"cloud.google.com/go/firestore"
	"github.com/mitchellh/mapstructure"
)

func questionData(q *models.Question) map[string]interface{} {
	return map[string]interface{}{
		"queueID":      q.QueueID,
		"creatorID":    q.CreatorID,
		"taHelpedID":   q.TAHelpedID,
		"text":         q.Text,
		"questionType": q.QuestionType,
		"status":       string(q.Status),
		"createdAt":    q.CreatedAt,
		"helpedAt":     q.HelpedAt,
		"closedAt":     q.ClosedAt,
	}
}

func decodeQuestion(doc *firestore.DocumentSnapshot) (*models.Question, error) {
	var q models.Question
	if err := mapstructure.Decode(doc.Data(), &q); err != nil {
		return nil, fmt.Errorf("error decoding question: %v", err)
	}
	q.ID = doc.Ref.ID
	return &q, nil
}

func (fr *FirebaseRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	if _, err := fr.queueRef(q.QueueID).Get(ctx); err != nil {
		if isNotFound(err) {
			return qerrors.QueueNotFoundError
		}
		return err
	}

	ref := fr.firestoreClient.Collection(models.FirestoreQuestionsCollection).NewDoc()
	if q.ID != "" {
		ref = fr.firestoreClient.Collection(models.FirestoreQuestionsCollection).Doc(q.ID)
	}
	if _, err := ref.Create(ctx, questionData(q)); err != nil {
		return fmt.Errorf("error creating question: %v", err)
	}
	q.ID = ref.ID
	return nil
}

func (fr *FirebaseRepository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	doc, err := fr.firestoreClient.Collection(models.FirestoreQuestionsCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, qerrors.QuestionNotFoundError
	}
	if err != nil {
		return nil, err
	}
	return decodeQuestion(doc)
}

func (fr *FirebaseRepository) ListQuestions(ctx context.Context, queueID string) ([]*models.Question, error) {
	docs, err := getAll(fr.firestoreClient.Collection(models.FirestoreQuestionsCollection).
		Where("queueID", "==", queueID).Documents(ctx))
	if err != nil {
		return nil, err
	}

	questions := make([]*models.Question, 0, len(docs))
	for _, doc := range docs {
		q, err := decodeQuestion(doc)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].CreatedAt.Before(questions[j].CreatedAt) })
	return questions, nil
}

func (fr *FirebaseRepository) UpdateQuestion(ctx context.Context, q *models.Question) error {
	_, err := fr.firestoreClient.Collection(models.FirestoreQuestionsCollection).Doc(q.ID).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(q.Status)},
		{Path: "taHelpedID", Value: q.TAHelpedID},
		{Path: "helpedAt", Value: q.HelpedAt},
		{Path: "closedAt", Value: q.ClosedAt},
	})
	if isNotFound(err) {
		return qerrors.QuestionNotFoundError
	}
	return err
}

func (fr *FirebaseRepository) CloseQuestions(ctx context.Context, queueID string, from []models.QuestionStatus, to models.QuestionStatus, at time.Time) (int, error) {
	if len(from) == 0 {
		return 0, nil
	}
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	query := fr.firestoreClient.Collection(models.FirestoreQuestionsCollection).
		Where("queueID", "==", queueID).
		Where("status", "in", statuses)

	var changed int
	err := fr.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := getAll(tx.Documents(query))
		if err != nil {
			return err
		}
		changed = 0
		for _, doc := range docs {
			if err := tx.Update(doc.Ref, []firestore.Update{
				{Path: "status", Value: string(to)},
				{Path: "closedAt", Value: at},
			}); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (fr *FirebaseRepository) AddEvent(ctx context.Context, e *models.Event) error {
	ref := fr.firestoreClient.Collection(models.FirestoreEventsCollection).NewDoc()
	_, err := ref.Create(ctx, map[string]interface{}{
		"eventType": string(e.Type),
		"userID":    e.UserID,
		"courseID":  e.CourseID,
		"queueID":   e.QueueID,
		"time":      e.Time,
	})
	if err != nil {
		return fmt.Errorf("error creating event: %v", err)
	}
	e.ID = ref.ID
	return nil
}

// ListEvents needs a composite index on (courseID, time).
func (fr *FirebaseRepository) ListEvents(ctx context.Context, courseID string, start, end time.Time) ([]*models.Event, error) {
	docs, err := getAll(fr.firestoreClient.Collection(models.FirestoreEventsCollection).
		Where("courseID", "==", courseID).
		Where("time", ">=", start).
		Where("time", "<", end).
		OrderBy("time", firestore.Asc).
		Documents(ctx))
	if err != nil {
		return nil, err
	}

	events := make([]*models.Event, 0, len(docs))
	for _, doc := range docs {
		var e models.Event
		if err := mapstructure.Decode(doc.Data(), &e); err != nil {
			return nil, fmt.Errorf("error decoding event: %v", err)
		}
		e.ID = doc.Ref.ID
		events = append(events, &e)
	}
	return events, nil
}

func (fr *FirebaseRepository) AddCalendarEvent(ctx context.Context, e *models.CalendarEvent) error {
	if _, err := fr.firestoreClient.Collection(models.FirestoreCoursesCollection).Doc(e.CourseID).Get(ctx); err != nil {
		if isNotFound(err) {
			return qerrors.CourseNotFoundError
		}
		return err
	}

	days := make([]interface{}, len(e.DaysOfWeek))
	for i, d := range e.DaysOfWeek {
		days[i] = d
	}
	ref := fr.firestoreClient.Collection(models.FirestoreCalendarEventsCollection).NewDoc()
	_, err := ref.Create(ctx, map[string]interface{}{
		"courseID":       e.CourseID,
		"title":          e.Title,
		"start":          e.Start,
		"end":            e.End,
		"daysOfWeek":     days,
		"endDate":        e.EndDate,
		"locationType":   string(e.LocationType),
		"locationDetail": e.LocationDetail,
	})
	if err != nil {
		return fmt.Errorf("error creating calendar event: %v", err)
	}
	e.ID = ref.ID
	return nil
}

func (fr *FirebaseRepository) ListCalendarEvents(ctx context.Context, courseID string) ([]*models.CalendarEvent, error) {
	docs, err := getAll(fr.firestoreClient.Collection(models.FirestoreCalendarEventsCollection).
		Where("courseID", "==", courseID).Documents(ctx))
	if err != nil {
		return nil, err
	}

	events := make([]*models.CalendarEvent, 0, len(docs))
	for _, doc := range docs {
		var e models.CalendarEvent
		if err := mapstructure.Decode(doc.Data(), &e); err != nil {
			return nil, fmt.Errorf("error decoding calendar event: %v", err)
		}
		e.ID = doc.Ref.ID
		events = append(events, &e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}
