package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomchat-service/internal/middleware"
	"roomchat-service/internal/mocks"
	"roomchat-service/internal/models"
	"roomchat-service/internal/repositories"
)

func setupUserRouter(handler *UserHandler, principal *models.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set(middleware.PrincipalContextKey, *principal)
		}
		c.Next()
	})
	r.GET("/users", handler.ListUsers)
	r.DELETE("/users/:username", handler.DeleteUser)
	return r
}

func TestListUsersSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)
	router := setupUserRouter(handler, alicePrincipal())

	userRepo.On("ListUsers", mock.Anything).Return([]models.User{
		{UserID: "42", Username: "bob"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "42", resp.Users[0].UserID)
	userRepo.AssertExpectations(t)
}

func TestListUsersUnauthenticated(t *testing.T) {
	handler := NewUserHandler(new(mocks.UserRepositoryMock))
	router := setupUserRouter(handler, nil)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteUserSelf(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)
	router := setupUserRouter(handler, alicePrincipal())

	stored := models.User{PartitionKey: "USER#1", SortKey: "PROFILE#1", UserID: "1", Username: "alice"}
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil).Once()
	userRepo.On("DeleteUser", mock.Anything, stored).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/users/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestDeleteUserAsAdmin(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)
	admin := &models.Principal{Username: "root", AccessLevel: "admin"}
	router := setupUserRouter(handler, admin)

	stored := models.User{PartitionKey: "USER#2", SortKey: "PROFILE#2", UserID: "2", Username: "bob"}
	userRepo.On("FindByUsername", mock.Anything, "bob").Return(stored, nil).Once()
	userRepo.On("DeleteUser", mock.Anything, stored).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/users/bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestDeleteUserForbiddenForOthers(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)
	router := setupUserRouter(handler, alicePrincipal())

	req := httptest.NewRequest(http.MethodDelete, "/users/bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	userRepo.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

func TestDeleteUserNotFound(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)
	router := setupUserRouter(handler, alicePrincipal())

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/users/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestDeleteUserRepoError(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)
	router := setupUserRouter(handler, alicePrincipal())

	stored := models.User{PartitionKey: "USER#1", SortKey: "PROFILE#1", UserID: "1", Username: "alice"}
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil).Once()
	userRepo.On("DeleteUser", mock.Anything, stored).Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodDelete, "/users/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	userRepo.AssertExpectations(t)
}
