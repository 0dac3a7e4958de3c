package repository

import (
	"context"
	"fmt"
	"log"
	"sync"

	"helpme/internal/models"

	"cloud.google.com/go/firestore"
	firebaseSDK "firebase.google.com/go"
	"github.com/golang/glog"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirebaseRepository stores everything in Firestore. Presence lives twice: as one
// staff_presence document per user (so a user can only be present once) and as the queue's staff
// map (so a queue read returns its presence set). Both are written in the same transaction.
type FirebaseRepository struct {
	firestoreClient *firestore.Client

	profilesLock *sync.RWMutex
	profiles     map[string]*models.Profile

	cancelListeners context.CancelFunc
}

func NewFirebaseRepository(ctx context.Context, app *firebaseSDK.App) (*FirebaseRepository, error) {
	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("Firestore client error: %v", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	fr := &FirebaseRepository{
		firestoreClient: firestoreClient,
		profilesLock:    &sync.RWMutex{},
		profiles:        make(map[string]*models.Profile),
		cancelListeners: cancel,
	}

	go func() {
		log.Println("⏳ Starting user profiles collection listener...")
		if err := fr.startUserProfilesListener(listenCtx); err != nil {
			glog.Errorf("user profiles collection listener error: %v\n", err)
		}
	}()

	return fr, nil
}

func (fr *FirebaseRepository) Close() error {
	fr.cancelListeners()
	return fr.firestoreClient.Close()
}

// startUserProfilesListener attaches a listener to the user_profiles collection and keeps an
// in-memory copy of it, so profile lookups for queue views don't hit Firestore each time.
func (fr *FirebaseRepository) startUserProfilesListener(ctx context.Context) error {
	it := fr.firestoreClient.Collection(models.FirestoreUserProfilesCollection).Snapshots(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		// DeadlineExceeded or Canceled will be returned when ctx is cancelled.
		if code := status.Code(err); code == codes.DeadlineExceeded || code == codes.Canceled {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Snapshots.Next: %v", err)
		}
		if snap == nil {
			continue
		}

		for _, change := range snap.Changes {
			id := change.Doc.Ref.ID
			if change.Kind == firestore.DocumentRemoved {
				fr.profilesLock.Lock()
				delete(fr.profiles, id)
				fr.profilesLock.Unlock()
				continue
			}

			var profile models.Profile
			if err := mapstructure.Decode(change.Doc.Data(), &profile); err != nil {
				glog.Warningf("skipping malformed user profile %s: %v\n", id, err)
				continue
			}
			fr.profilesLock.Lock()
			fr.profiles[id] = &profile
			fr.profilesLock.Unlock()
		}
	}
}

// getAll drains a document iterator.
func getAll(it *firestore.DocumentIterator) ([]*firestore.DocumentSnapshot, error) {
	defer it.Stop()
	var docs []*firestore.DocumentSnapshot
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
