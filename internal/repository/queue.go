package repository

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	"cloud.google.com/go/firestore"
	"github.com/mitchellh/mapstructure"
)

// roomLockID is the ID of the document that holds a (course, room) pair while a queue there is
// active.
func roomLockID(courseID, room string) string {
	return courseID + ":" + url.PathEscape(room)
}

func (fr *FirebaseRepository) queueRef(id string) *firestore.DocumentRef {
	return fr.firestoreClient.Collection(models.FirestoreQueuesCollection).Doc(id)
}

func (fr *FirebaseRepository) presenceRef(userID string) *firestore.DocumentRef {
	return fr.firestoreClient.Collection(models.FirestoreStaffPresenceCollection).Doc(userID)
}

func (fr *FirebaseRepository) roomRef(courseID, room string) *firestore.DocumentRef {
	return fr.firestoreClient.Collection(models.FirestoreQueueRoomsCollection).Doc(roomLockID(courseID, room))
}

func (fr *FirebaseRepository) CreateQueue(ctx context.Context, q *models.Queue) error {
	ref := fr.firestoreClient.Collection(models.FirestoreQueuesCollection).NewDoc()
	if q.ID != "" {
		ref = fr.queueRef(q.ID)
	}
	courseRef := fr.firestoreClient.Collection(models.FirestoreCoursesCollection).Doc(q.CourseID)
	roomRef := fr.roomRef(q.CourseID, q.Room)

	err := fr.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(courseRef); err != nil {
			if isNotFound(err) {
				return qerrors.CourseNotFoundError
			}
			return err
		}

		room, err := tx.Get(roomRef)
		if err != nil && !isNotFound(err) {
			return err
		}
		if room != nil && room.Exists() {
			return qerrors.QueueAlreadyExistsError
		}

		if err := tx.Create(roomRef, map[string]interface{}{"queueID": ref.ID}); err != nil {
			return err
		}
		return tx.Create(ref, map[string]interface{}{
			"courseID":         q.CourseID,
			"room":             q.Room,
			"notes":            q.Notes,
			"isDisabled":       false,
			"allowQuestions":   false,
			"isProfessorQueue": q.IsProfessorQueue,
			"createdAt":        q.CreatedAt,
			"staff":            map[string]interface{}{},
		})
	})
	if isAlreadyExists(err) {
		return qerrors.QueueAlreadyExistsError
	}
	if err != nil {
		return err
	}

	q.ID = ref.ID
	q.IsDisabled = false
	q.AllowQuestions = false
	q.Staff = nil
	return nil
}

func (fr *FirebaseRepository) GetQueue(ctx context.Context, id string) (*models.Queue, error) {
	doc, err := fr.queueRef(id).Get(ctx)
	if isNotFound(err) {
		return nil, qerrors.QueueNotFoundError
	}
	if err != nil {
		return nil, err
	}
	return decodeQueue(doc)
}

func (fr *FirebaseRepository) FindActiveQueue(ctx context.Context, courseID, room string) (*models.Queue, error) {
	lock, err := fr.roomRef(courseID, room).Get(ctx)
	if isNotFound(err) {
		return nil, qerrors.QueueNotFoundError
	}
	if err != nil {
		return nil, err
	}
	queueID, _ := lock.Data()["queueID"].(string)
	if queueID == "" {
		return nil, qerrors.QueueNotFoundError
	}
	return fr.GetQueue(ctx, queueID)
}

func (fr *FirebaseRepository) ListActiveQueues(ctx context.Context, courseID string) ([]*models.Queue, error) {
	query := fr.firestoreClient.Collection(models.FirestoreQueuesCollection).Where("isDisabled", "==", false)
	if courseID != "" {
		query = query.Where("courseID", "==", courseID)
	}
	docs, err := getAll(query.Documents(ctx))
	if err != nil {
		return nil, err
	}

	queues := make([]*models.Queue, 0, len(docs))
	for _, doc := range docs {
		q, err := decodeQueue(doc)
		if err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].CreatedAt.Before(queues[j].CreatedAt) })
	return queues, nil
}

func (fr *FirebaseRepository) UpdateQueueNotes(ctx context.Context, id, notes string) error {
	_, err := fr.queueRef(id).Update(ctx, []firestore.Update{{Path: "notes", Value: notes}})
	if isNotFound(err) {
		return qerrors.QueueNotFoundError
	}
	return err
}

func (fr *FirebaseRepository) DisableQueue(ctx context.Context, id string) error {
	ref := fr.queueRef(id)
	return fr.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if isNotFound(err) {
			return qerrors.QueueNotFoundError
		}
		if err != nil {
			return err
		}
		q, err := decodeQueue(doc)
		if err != nil {
			return err
		}
		if q.IsDisabled {
			return nil
		}

		for _, s := range q.Staff {
			if err := tx.Delete(fr.presenceRef(s.UserID)); err != nil {
				return err
			}
		}
		if err := tx.Delete(fr.roomRef(q.CourseID, q.Room)); err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "isDisabled", Value: true},
			{Path: "allowQuestions", Value: false},
			{Path: "staff", Value: map[string]interface{}{}},
		})
	})
}

func (fr *FirebaseRepository) AddStaff(ctx context.Context, queueID, userID string, at time.Time) error {
	ref := fr.queueRef(queueID)
	presence := fr.presenceRef(userID)

	err := fr.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if isNotFound(err) {
			return qerrors.QueueNotFoundError
		}
		if err != nil {
			return err
		}
		q, err := decodeQueue(doc)
		if err != nil {
			return err
		}
		if q.IsDisabled {
			return qerrors.QueueDisabledError
		}
		if q.HasStaff(userID) {
			return qerrors.DuplicatePresenceError
		}

		p, err := tx.Get(presence)
		if err != nil && !isNotFound(err) {
			return err
		}
		if p != nil && p.Exists() {
			if p.Data()["queueID"] == queueID {
				return qerrors.DuplicatePresenceError
			}
			return qerrors.AlreadyCheckedInError
		}

		if err := tx.Create(presence, map[string]interface{}{
			"queueID":     queueID,
			"userID":      userID,
			"checkedInAt": at,
		}); err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{FieldPath: firestore.FieldPath{"staff", userID}, Value: at},
			{Path: "allowQuestions", Value: true},
		})
	})
	if isAlreadyExists(err) {
		return qerrors.AlreadyCheckedInError
	}
	return err
}

func (fr *FirebaseRepository) RemoveStaff(ctx context.Context, queueID, userID string) (bool, int, error) {
	ref := fr.queueRef(queueID)
	presence := fr.presenceRef(userID)

	var removed bool
	var remaining int
	err := fr.firestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		removed, remaining = false, 0

		doc, err := tx.Get(ref)
		if isNotFound(err) {
			return qerrors.QueueNotFoundError
		}
		if err != nil {
			return err
		}
		q, err := decodeQueue(doc)
		if err != nil {
			return err
		}
		p, err := tx.Get(presence)
		if err != nil && !isNotFound(err) {
			return err
		}

		removed = q.HasStaff(userID)
		remaining = len(q.Staff)
		if removed {
			remaining--
		}

		if p != nil && p.Exists() && p.Data()["queueID"] == queueID {
			if err := tx.Delete(presence); err != nil {
				return err
			}
		}

		var updates []firestore.Update
		if removed {
			updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{"staff", userID}, Value: firestore.Delete})
		}
		if remaining == 0 && q.AllowQuestions {
			updates = append(updates, firestore.Update{Path: "allowQuestions", Value: false})
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return false, 0, err
	}
	return removed, remaining, nil
}

func (fr *FirebaseRepository) GetStaffPresence(ctx context.Context, userID string) (*models.StaffPresence, error) {
	doc, err := fr.presenceRef(userID).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.StaffPresence
	if err := mapstructure.Decode(doc.Data(), &p); err != nil {
		return nil, fmt.Errorf("error decoding staff presence: %v", err)
	}
	p.UserID = userID
	return &p, nil
}

// decodeQueue converts a queue document, including its staff map, into a Queue.
func decodeQueue(doc *firestore.DocumentSnapshot) (*models.Queue, error) {
	data := doc.Data()

	var q models.Queue
	if err := mapstructure.Decode(data, &q); err != nil {
		return nil, fmt.Errorf("error decoding queue: %v", err)
	}
	q.ID = doc.Ref.ID

	staff, _ := data["staff"].(map[string]interface{})
	for userID, v := range staff {
		at, _ := v.(time.Time)
		q.Staff = append(q.Staff, models.StaffPresence{QueueID: q.ID, UserID: userID, CheckedInAt: at})
	}
	sort.Slice(q.Staff, func(i, j int) bool {
		if q.Staff[i].CheckedInAt.Equal(q.Staff[j].CheckedInAt) {
			return q.Staff[i].UserID < q.Staff[j].UserID
		}
		return q.Staff[i].CheckedInAt.Before(q.Staff[j].CheckedInAt)
	})
	return &q, nil
}
