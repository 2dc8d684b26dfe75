package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/barkwolwol/tictactoe-server/internal/apperror"
	"github.com/barkwolwol/tictactoe-server/internal/entity"
)

const userKeyPrefix = "user:"

type UserRepository interface {
	CreateOrUpdate(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	DeleteByID(ctx context.Context, id string) error
	ListNames(ctx context.Context) ([]string, error)
}

type dbUser struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &dbUser{
		client: client,
	}
}

func (that *dbUser) CreateOrUpdate(ctx context.Context, user *entity.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	userKey := userKeyPrefix + user.ID
	if err = that.client.Set(ctx, userKey, userJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}

	return nil
}

func (that *dbUser) GetByID(ctx context.Context, id string) (*entity.User, error) {
	userKey := userKeyPrefix + id

	response, err := that.client.Get(ctx, userKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUserNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	var existingUser entity.User
	if err = json.Unmarshal([]byte(response), &existingUser); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &existingUser, nil
}

func (that *dbUser) DeleteByID(ctx context.Context, id string) error {
	userKey := userKeyPrefix + id

	if err := that.client.Del(ctx, userKey).Err(); err != nil {
		return fmt.Errorf("failed to delete user by ID: %w", err)
	}

	return nil
}

// ListNames returns every registered nickname, sorted. Nicknames are
// not unique, duplicates are expected in the roster.
func (that *dbUser) ListNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0)

	iter := that.client.Scan(ctx, 0, userKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		response, err := that.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			continue // removed between scan and get
		}

		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		var user entity.User
		if err = json.Unmarshal([]byte(response), &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}

		// connections that never declared a nickname stay off the roster
		if user.Name == "" {
			continue
		}

		names = append(names, user.Name)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}

	sort.Strings(names)

	return names, nil
}
