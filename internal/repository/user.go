package repository

import (
	"context"
	"fmt"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	"github.com/mitchellh/mapstructure"
)

func (fr *FirebaseRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	if profile, ok := fr.getUserProfile(id); ok {
		return &models.User{ID: id, Profile: profile}, nil
	}

	doc, err := fr.firestoreClient.Collection(models.FirestoreUserProfilesCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, qerrors.UserNotFoundError
	}
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := mapstructure.Decode(doc.Data(), &profile); err != nil {
		return nil, fmt.Errorf("error decoding user profile: %v", err)
	}
	return &models.User{ID: id, Profile: &profile}, nil
}

func (fr *FirebaseRepository) UpsertUser(ctx context.Context, u *models.User) error {
	p := u.Profile
	if p == nil {
		p = &models.Profile{}
	}
	_, err := fr.firestoreClient.Collection(models.FirestoreUserProfilesCollection).Doc(u.ID).Set(ctx, map[string]interface{}{
		"id":          u.ID,
		"displayName": p.DisplayName,
		"email":       p.Email,
		"photoUrl":    p.PhotoURL,
		"isAdmin":     p.IsAdmin,
	})
	if err != nil {
		return fmt.Errorf("error creating user profile: %v", err)
	}

	profile := *p
	fr.profilesLock.Lock()
	fr.profiles[u.ID] = &profile
	fr.profilesLock.Unlock()
	return nil
}

// getUserProfile gets the Profile from the profiles map corresponding to the provided user ID.
func (fr *FirebaseRepository) getUserProfile(id string) (*models.Profile, bool) {
	fr.profilesLock.RLock()
	defer fr.profilesLock.RUnlock()

	val, ok := fr.profiles[id]
	if !ok {
		return nil, false
	}
	profile := *val
	return &profile, true
}
