package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
)

// UsersRepo is an in-process user store. It backs tests and DB-less dev runs.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // {"id": user}
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(u.Email, "") {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

// Search matches Name as a case-insensitive substring and pages the result
// ordered by name then id.
func (r *UsersRepo) Search(_ context.Context, filter user.SearchFilter) ([]user.User, int, error) {
	r.mu.RLock()

	matched := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		if filter.Name != nil && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(*filter.Name)) {
			continue
		}
		matched = append(matched, u)
	}

	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := filter.Offset()

	if start >= total {
		return []user.User{}, total, nil
	}

	end := start + filter.Size
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

// Update applies fn to the stored user under the write lock, which gives the
// same one-writer-per-row guarantee as the postgres row lock.
func (r *UsersRepo) Update(_ context.Context, id string, fn func(*user.User) error) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if err := fn(&u); err != nil {
		return user.User{}, err
	}

	if r.emailTakenLocked(u.Email, id) {
		return user.User{}, user.ErrEmailTaken
	}

	u.ID = id
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}

func (r *UsersRepo) emailTakenLocked(email, exceptID string) bool {
	for id, u := range r.items {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
