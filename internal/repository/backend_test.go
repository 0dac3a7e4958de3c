package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	firebaseSDK "firebase.google.com/go"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// testBackend runs the room and presence guarantees every Repository must keep.
func testBackend(t *testing.T, repo Repository) {
	ctx := context.Background()
	newCourse := func(t *testing.T) string {
		t.Helper()
		c := &models.Course{Title: "Systems", Code: "CS33", Created: at}
		if err := repo.CreateCourse(ctx, c); err != nil {
			t.Fatalf("CreateCourse: %v", err)
		}
		return c.ID
	}
	newQueue := func(t *testing.T, courseID, room string) *models.Queue {
		t.Helper()
		q := &models.Queue{CourseID: courseID, Room: room, CreatedAt: at}
		if err := repo.CreateQueue(ctx, q); err != nil {
			t.Fatalf("CreateQueue(%s): %v", room, err)
		}
		return q
	}
	staffID := func() string { return "staff-" + uuid.NewString() }

	t.Run("OneActiveQueuePerRoom", func(t *testing.T) {
		courseID := newCourse(t)
		first := newQueue(t, courseID, "Lab")

		err := repo.CreateQueue(ctx, &models.Queue{CourseID: courseID, Room: "Lab", CreatedAt: at})
		if !errors.Is(err, qerrors.QueueAlreadyExistsError) {
			t.Fatalf("Expected QueueAlreadyExistsError, got %v", err)
		}
		newQueue(t, courseID, "Hall")

		if err := repo.DisableQueue(ctx, first.ID); err != nil {
			t.Fatalf("DisableQueue: %v", err)
		}
		second := newQueue(t, courseID, "Lab")
		found, err := repo.FindActiveQueue(ctx, courseID, "Lab")
		if err != nil || found.ID != second.ID {
			t.Errorf("Expected active queue %s, got %v, %v", second.ID, found, err)
		}
	})

	t.Run("ConcurrentCheckInsToTwoQueues", func(t *testing.T) {
		courseID := newCourse(t)
		queues := []*models.Queue{newQueue(t, courseID, "Lab"), newQueue(t, courseID, "Hall")}
		userID := staffID()

		var wg sync.WaitGroup
		errs := make([]error, len(queues))
		for i, q := range queues {
			wg.Add(1)
			go func(i int, queueID string) {
				defer wg.Done()
				errs[i] = repo.AddStaff(ctx, queueID, userID, at)
			}(i, q.ID)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, qerrors.AlreadyCheckedInError):
				t.Errorf("Expected AlreadyCheckedInError for the losing check-in, got %v", err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("Expected exactly one check-in to succeed, got %d", succeeded)
		}

		open := 0
		for _, q := range queues {
			got, err := repo.GetQueue(ctx, q.ID)
			if err != nil {
				t.Fatalf("GetQueue: %v", err)
			}
			if got.AllowQuestions != (len(got.Staff) > 0) {
				t.Errorf("Queue %s: allowQuestions %v with %d staff", q.ID, got.AllowQuestions, len(got.Staff))
			}
			if got.AllowQuestions {
				open++
			}
		}
		if open != 1 {
			t.Errorf("Expected one queue open to questions, got %d", open)
		}
	})

	t.Run("ConcurrentCheckOuts", func(t *testing.T) {
		courseID := newCourse(t)
		q := newQueue(t, courseID, "Lab")

		const n = 4
		users := make([]string, n)
		for i := range users {
			users[i] = staffID()
			if err := repo.AddStaff(ctx, q.ID, users[i], at); err != nil {
				t.Fatalf("AddStaff: %v", err)
			}
		}
		if err := repo.AddStaff(ctx, q.ID, users[0], at); !errors.Is(err, qerrors.DuplicatePresenceError) {
			t.Errorf("Expected DuplicatePresenceError, got %v", err)
		}

		var wg sync.WaitGroup
		remaining := make([]int, n)
		errs := make([]error, n)
		for i, userID := range users {
			wg.Add(1)
			go func(i int, userID string) {
				defer wg.Done()
				var removed bool
				removed, remaining[i], errs[i] = repo.RemoveStaff(ctx, q.ID, userID)
				if errs[i] == nil && !removed {
					errs[i] = errors.New("not removed")
				}
			}(i, userID)
		}
		wg.Wait()

		last := 0
		for i, err := range errs {
			if err != nil {
				t.Fatalf("RemoveStaff(%s): %v", users[i], err)
			}
			if remaining[i] == 0 {
				last++
			}
		}
		if last != 1 {
			t.Errorf("Expected exactly one check-out to see the queue empty, got %d", last)
		}

		got, err := repo.GetQueue(ctx, q.ID)
		if err != nil {
			t.Fatalf("GetQueue: %v", err)
		}
		if got.AllowQuestions || len(got.Staff) != 0 {
			t.Errorf("Expected an empty queue closed to questions, got %+v", got)
		}
	})

	t.Run("DisableChecksEveryoneOut", func(t *testing.T) {
		courseID := newCourse(t)
		q := newQueue(t, courseID, "Lab")
		userID := staffID()
		if err := repo.AddStaff(ctx, q.ID, userID, at); err != nil {
			t.Fatalf("AddStaff: %v", err)
		}

		if err := repo.DisableQueue(ctx, q.ID); err != nil {
			t.Fatalf("DisableQueue: %v", err)
		}
		if sp, err := repo.GetStaffPresence(ctx, userID); err != nil || sp != nil {
			t.Errorf("Expected no presence after disable, got %+v, %v", sp, err)
		}
		if err := repo.AddStaff(ctx, q.ID, userID, at); !errors.Is(err, qerrors.QueueDisabledError) {
			t.Errorf("Expected QueueDisabledError, got %v", err)
		}
	})
}

func TestMemoryBackend(t *testing.T) {
	testBackend(t, NewMemoryRepository())
}

func TestPostgresBackend(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := MigratePostgres(url); err != nil {
		t.Fatalf("MigratePostgres: %v", err)
	}
	pool, err := OpenPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	repo := NewPostgresRepository(pool)
	defer repo.Close()

	testBackend(t, repo)
}

func TestFirestoreBackend(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	app, err := firebaseSDK.NewApp(ctx, &firebaseSDK.Config{ProjectID: "helpme-test"}, option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	repo, err := NewFirebaseRepository(ctx, app)
	if err != nil {
		t.Fatalf("NewFirebaseRepository: %v", err)
	}
	defer repo.Close()

	testBackend(t, repo)
}
