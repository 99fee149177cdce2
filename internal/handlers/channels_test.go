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
)

func setupChannelRouter(handler *ChannelHandler, principal *models.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set(middleware.PrincipalContextKey, *principal)
		}
		c.Next()
	})
	r.GET("/channels", handler.ListChannels)
	return r
}

func TestListChannelsSuccess(t *testing.T) {
	rosterRepo := new(mocks.RosterRepositoryMock)
	handler := NewChannelHandler(rosterRepo)
	router := setupChannelRouter(handler, alicePrincipal())

	rosterRepo.On("ListChannels", mock.Anything, false).Return([]models.ChannelMeta{
		{Name: "general", IsLocked: false},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Channels []models.ChannelMeta `json:"channels"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Channels, 1)
	assert.Equal(t, "general", resp.Channels[0].Name)
	rosterRepo.AssertExpectations(t)
}

func TestListChannelsIncludeLocked(t *testing.T) {
	rosterRepo := new(mocks.RosterRepositoryMock)
	handler := NewChannelHandler(rosterRepo)
	router := setupChannelRouter(handler, alicePrincipal())

	rosterRepo.On("ListChannels", mock.Anything, true).Return([]models.ChannelMeta{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/channels?includeLocked=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rosterRepo.AssertExpectations(t)
}

func TestListChannelsEmptyResultIsEmptyArray(t *testing.T) {
	rosterRepo := new(mocks.RosterRepositoryMock)
	handler := NewChannelHandler(rosterRepo)
	router := setupChannelRouter(handler, alicePrincipal())

	rosterRepo.On("ListChannels", mock.Anything, false).Return(([]models.ChannelMeta)(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"channels":[]}`, rec.Body.String())
}

func TestListChannelsUnauthenticated(t *testing.T) {
	handler := NewChannelHandler(new(mocks.RosterRepositoryMock))
	router := setupChannelRouter(handler, nil)

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListChannelsRepoError(t *testing.T) {
	rosterRepo := new(mocks.RosterRepositoryMock)
	handler := NewChannelHandler(rosterRepo)
	router := setupChannelRouter(handler, alicePrincipal())

	rosterRepo.On("ListChannels", mock.Anything, false).Return(([]models.ChannelMeta)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	rosterRepo.AssertExpectations(t)
}
