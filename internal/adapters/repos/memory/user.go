package memory

import (
	"context"
	"sync"
	"testing"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
)

type UserRepo struct {
	mu        sync.Mutex
	byID      map[user.ID]*user.User
	byEmail   map[string]user.ID
	events    *EventLog
	saveHooks []func(u *user.User)
}

func NewUserRepo(events *EventLog) *UserRepo {
	if events == nil {
		events = NewEventLog()
	}
	return &UserRepo{
		byID:    make(map[user.ID]*user.User),
		byEmail: make(map[string]user.ID),
		events:  events,
	}
}

// BeforeSave registers fn to run at the start of SaveUser, outside the lock.
// Tests use it to simulate a concurrent insert.
func (r *UserRepo) BeforeSave(fn func(u *user.User)) {
	r.saveHooks = append(r.saveHooks, fn)
}

func (r *UserRepo) SaveUser(_ context.Context, u *user.User) error {
	const op = "memory.UserRepo.SaveUser"
	for _, fn := range r.saveHooks {
		fn(u)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email()]; ok {
		return errorx.Wrap(errorx.NewEmailExists(), op)
	}
	r.byID[u.ID()] = cloneUser(u)
	r.byEmail[u.Email()] = u.ID()

	r.events.append(u.GetUncommittedEvents()...)
	u.MarkEventsAsCommitted()
	return nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, id user.ID, fn func(ctx context.Context, u *user.User) error) error {
	const op = "memory.UserRepo.UpdateUser"
	if fn == nil {
		return repos.ErrNilFunc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return errorx.Wrap(user.ErrNotFound, op)
	}
	u := cloneUser(stored)

	fnerr := fn(ctx, u)
	if fnerr != nil && !errorx.IsPersistable(fnerr) {
		return errorx.Wrap(fnerr, op)
	}

	r.byID[id] = cloneUser(u)
	r.events.append(u.GetUncommittedEvents()...)
	u.MarkEventsAsCommitted()

	return errorx.Wrap(fnerr, op)
}

func (r *UserRepo) GetUserByID(_ context.Context, id user.ID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, errorx.Wrap(user.ErrNotFound, "memory.UserRepo.GetUserByID")
}

func (r *UserRepo) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byEmail[email]; ok {
		return cloneUser(r.byID[id]), nil
	}
	return nil, errorx.Wrap(user.ErrNotFound, "memory.UserRepo.GetUserByEmail")
}

func (r *UserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *UserRepo) SeedUser(t *testing.T, u *user.User) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[u.ID()]; exists {
		t.Fatalf("user with ID %s already exists", u.ID())
	}
	if _, exists := r.byEmail[u.Email()]; exists {
		t.Fatalf("user with email %s already exists", u.Email())
	}
	r.byID[u.ID()] = cloneUser(u)
	r.byEmail[u.Email()] = u.ID()
}

func (r *UserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func cloneUser(u *user.User) *user.User {
	return user.Rehydrate(user.RehydrateArgs{
		ID:          u.ID(),
		Email:       u.Email(),
		PassHash:    append([]byte(nil), u.PassHash()...),
		Role:        u.Role(),
		Username:    u.Username(),
		Gender:      u.Gender(),
		BirthDate:   u.BirthDate(),
		PhoneNumber: u.PhoneNumber(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	})
}
