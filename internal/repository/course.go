package repository

import (
	"context"
	"fmt"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	"cloud.google.com/go/firestore"
	"github.com/mitchellh/mapstructure"
)

func (fr *FirebaseRepository) CreateCourse(ctx context.Context, c *models.Course) error {
	ref := fr.firestoreClient.Collection(models.FirestoreCoursesCollection).NewDoc()
	if c.ID != "" {
		ref = fr.firestoreClient.Collection(models.FirestoreCoursesCollection).Doc(c.ID)
	}

	roles := make(map[string]interface{}, len(c.Roles))
	for userID, role := range c.Roles {
		roles[userID] = string(role)
	}
	_, err := ref.Create(ctx, map[string]interface{}{
		"title":     c.Title,
		"code":      c.Code,
		"term":      c.Term,
		"createdAt": c.Created,
		"roles":     roles,
	})
	if err != nil {
		return fmt.Errorf("error creating course: %v", err)
	}
	c.ID = ref.ID
	return nil
}

func (fr *FirebaseRepository) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	doc, err := fr.firestoreClient.Collection(models.FirestoreCoursesCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, qerrors.CourseNotFoundError
	}
	if err != nil {
		return nil, err
	}

	var c models.Course
	if err := mapstructure.Decode(doc.Data(), &c); err != nil {
		return nil, fmt.Errorf("error decoding course: %v", err)
	}
	c.ID = doc.Ref.ID
	if c.Roles == nil {
		c.Roles = make(map[string]models.Role)
	}
	return &c, nil
}

func (fr *FirebaseRepository) SetCourseRole(ctx context.Context, courseID, userID string, role models.Role) error {
	_, err := fr.firestoreClient.Collection(models.FirestoreCoursesCollection).Doc(courseID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"roles", userID}, Value: string(role)},
	})
	if isNotFound(err) {
		return qerrors.CourseNotFoundError
	}
	return err
}

func (fr *FirebaseRepository) GetCourseRole(ctx context.Context, courseID, userID string) (models.Role, error) {
	c, err := fr.GetCourse(ctx, courseID)
	if err != nil {
		return "", err
	}
	role, ok := c.Roles[userID]
	if !ok {
		return "", qerrors.UserCourseNotFoundError
	}
	return role, nil
}
