package memory

import (
	"context"
	"sync"
	"testing"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
)

type EmailVerificationRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*emailverification.Verification
	events    *EventLog
	deleteErr error
}

func NewEmailVerificationRepo(events *EventLog) *EmailVerificationRepo {
	if events == nil {
		events = NewEventLog()
	}
	return &EmailVerificationRepo{
		byEmail: make(map[string]*emailverification.Verification),
		events:  events,
	}
}

// FailDeletes makes every following delete return err.
func (r *EmailVerificationRepo) FailDeletes(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteErr = err
}

func (r *EmailVerificationRepo) SaveVerification(_ context.Context, v *emailverification.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := v.ID()
	if prev, ok := r.byEmail[v.Email()]; ok {
		id = prev.ID()
	}
	r.byEmail[v.Email()] = emailverification.Rehydrate(emailverification.RehydrateArgs{
		ID:        id,
		Email:     v.Email(),
		Token:     v.Token(),
		CreatedAt: v.CreatedAt(),
		ExpiresAt: v.ExpiresAt(),
	})

	r.events.append(v.GetUncommittedEvents()...)
	v.MarkEventsAsCommitted()
	return nil
}

func (r *EmailVerificationRepo) GetVerificationByEmail(_ context.Context, email string) (*emailverification.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.byEmail[email]; ok {
		return cloneVerification(v), nil
	}
	return nil, errorx.Wrap(emailverification.ErrNotFound, "memory.EmailVerificationRepo.GetVerificationByEmail")
}

func (r *EmailVerificationRepo) GetVerificationByToken(_ context.Context, token string) (*emailverification.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.byEmail {
		if v.Token() == token {
			return cloneVerification(v), nil
		}
	}
	return nil, errorx.Wrap(emailverification.ErrNotFound, "memory.EmailVerificationRepo.GetVerificationByToken")
}

func (r *EmailVerificationRepo) DeleteVerificationByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return errorx.Wrap(r.deleteErr, "memory.EmailVerificationRepo.DeleteVerificationByEmail")
	}
	delete(r.byEmail, email)
	return nil
}

func (r *EmailVerificationRepo) SeedVerification(t *testing.T, v *emailverification.Verification) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEmail[v.Email()] = cloneVerification(v)
}

func (r *EmailVerificationRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail)
}

func cloneVerification(v *emailverification.Verification) *emailverification.Verification {
	return emailverification.Rehydrate(emailverification.RehydrateArgs{
		ID:        v.ID(),
		Email:     v.Email(),
		Token:     v.Token(),
		CreatedAt: v.CreatedAt(),
		ExpiresAt: v.ExpiresAt(),
	})
}
