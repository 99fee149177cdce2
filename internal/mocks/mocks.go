package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"roomchat-service/internal/models"
	"roomchat-service/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Send(ctx context.Context, address repositories.ThreadAddress, author, text string) (models.Message, error) {
	args := m.Called(ctx, address, author, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) List(ctx context.Context, address repositories.ThreadAddress, limit int) ([]models.Message, error) {
	args := m.Called(ctx, address, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type RosterRepositoryMock struct {
	mock.Mock
}

func (m *RosterRepositoryMock) ListChannels(ctx context.Context, includeLocked bool) ([]models.ChannelMeta, error) {
	args := m.Called(ctx, includeLocked)
	var channels []models.ChannelMeta
	if val := args.Get(0); val != nil {
		channels = val.([]models.ChannelMeta)
	}
	return channels, args.Error(1)
}

func (m *RosterRepositoryMock) ListDMThreadsForUser(ctx context.Context, username string) ([]models.DMView, error) {
	args := m.Called(ctx, username)
	var views []models.DMView
	if val := args.Get(0); val != nil {
		views = val.([]models.DMView)
	}
	return views, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) FindByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) DeleteUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
