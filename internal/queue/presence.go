package queue

import (
	"context"
	"time"

	"helpme/internal/repository"
)

// Presence answers where staff members are checked in. It is a thin layer over the repository's
// presence relation, which keeps one entry per user and so makes the lookup a single read.
type Presence struct {
	repo repository.Repository
	now  func() time.Time
}

func NewPresence(repo repository.Repository) *Presence {
	return &Presence{repo: repo, now: time.Now}
}

// IsPresentElsewhere reports whether userID is checked into any queue other than
// excludingQueueID. An empty excludingQueueID matches every queue.
func (p *Presence) IsPresentElsewhere(ctx context.Context, userID, excludingQueueID string) (bool, error) {
	sp, err := p.repo.GetStaffPresence(ctx, userID)
	if err != nil {
		return false, err
	}
	return sp != nil && sp.QueueID != excludingQueueID, nil
}

// Add checks userID into the queue. It fails with qerrors.DuplicatePresenceError if the user is
// already there.
func (p *Presence) Add(ctx context.Context, queueID, userID string) error {
	return p.repo.AddStaff(ctx, queueID, userID, p.now())
}

// Remove checks userID out of the queue, reporting whether they were present and how many staff
// remain. Removing an absent user is not an error.
func (p *Presence) Remove(ctx context.Context, queueID, userID string) (bool, int, error) {
	return p.repo.RemoveStaff(ctx, queueID, userID)
}
