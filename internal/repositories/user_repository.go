package repositories

import (
	"context"
	"errors"
	"sort"

	"roomchat-service/internal/dynamo"
	"roomchat-service/internal/models"
	"roomchat-service/internal/rows"
)

// ErrUserNotFound is returned when no stored row matches the username.
// Callers performing authorization checks must treat this as "cannot
// authorize", never as a fresh identity.
var ErrUserNotFound = errors.New("user not found")

// UserRepository bridges the two historical user-row conventions behind a
// single lookup surface.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	DeleteUser(ctx context.Context, user models.User) error
}

// UserRepo is the table-backed implementation of UserRepository.
type UserRepo struct {
	store dynamo.Store
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(store dynamo.Store) *UserRepo {
	return &UserRepo{store: store}
}

// ListUsers returns every stored user with its canonical id, deduplicated
// by username and sorted by username. Rows without a derivable username are
// skipped.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	items, err := r.store.Scan(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	users := make([]models.User, 0)
	for _, item := range items {
		row := rows.Classify(item)
		if row.Kind != rows.KindUser || row.User == nil || row.User.Username == "" {
			continue
		}
		if seen[row.User.Username] {
			continue
		}
		seen[row.User.Username] = true
		users = append(users, *row.User)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// FindByUsername resolves a username to its stored row, whichever
// convention it was written under.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	if username == "" {
		return models.User{}, ErrUserNotFound
	}

	items, err := r.store.Scan(ctx)
	if err != nil {
		return models.User{}, err
	}

	for _, item := range items {
		row := rows.Classify(item)
		if row.Kind == rows.KindUser && row.User != nil && row.User.Username == username {
			return *row.User, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

// DeleteUser removes the user's physical row by the keys it was actually
// stored under.
func (r *UserRepo) DeleteUser(ctx context.Context, user models.User) error {
	return r.store.Delete(ctx, user.PartitionKey, user.SortKey)
}
