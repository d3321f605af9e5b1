package user

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewRepositoryStub() *RepositoryStub {
	r := &RepositoryStub{}
	r.Reset()
	return r
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]User)
}

func (r *RepositoryStub) CreateUser(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Id == "" {
		u.Id = uuid.NewString()
	}
	applySettingsDefaults(&u.Settings)
	r.users[u.Id] = u
	return u, nil
}

func (r *RepositoryStub) GetUser(ctx context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *RepositoryStub) UpdateUser(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Id]; !ok {
		return User{}, ErrUserNotFound
	}
	applySettingsDefaults(&u.Settings)
	r.users[u.Id] = u
	return u, nil
}

func (r *RepositoryStub) GetAllUsers(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []User
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}
