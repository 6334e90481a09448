package handlers

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-hexagonal-users/internal/application"
	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
	"github.com/oksasatya/go-hexagonal-users/pkg/response"
	"github.com/oksasatya/go-hexagonal-users/pkg/validation"
)

// Published on /api/debug/vars.
var (
	usersCreated      = expvar.NewInt("users_created_total")
	welcomeEmailFails = expvar.NewInt("welcome_email_failures_total")
)

// UserSearcher is the optional search capability of the user service.
type UserSearcher interface {
	SearchUsers(ctx context.Context, q string, size int) ([]userapp.UserHit, error)
}

type UserHandler struct {
	Create userapp.CreateUserUseCase
	Get    userapp.GetUserUseCase
	Search UserSearcher
	Logger *logrus.Logger
}

func NewUserHandler(create userapp.CreateUserUseCase, get userapp.GetUserUseCase, search UserSearcher, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Create: create, Get: get, Search: search, Logger: logger}
}

// Presence and format are checked by the domain; binding only caps sizes.
type createUserRequest struct {
	Name  string `json:"name" binding:"max=255"`
	Email string `json:"email" binding:"max=320"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toResponse(u *entity.User) userResponse {
	id, _ := u.ID()
	return userResponse{ID: id.Value(), Name: u.Name().Value(), Email: u.Email().Value()}
}

// CreateUser POST /api/users {name, email}
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Create.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		if u != nil && userapp.IsNotificationFailure(err) {
			// The user exists; only the welcome email is missing.
			h.logError("welcome email failed after user creation", err, u)
			usersCreated.Add(1)
			welcomeEmailFails.Add(1)
			response.Success(c, http.StatusCreated, toResponse(u), "user created", gin.H{"warning": "welcome email could not be sent"})
			return
		}
		h.writeError(c, err)
		return
	}
	usersCreated.Add(1)
	response.Success(c, http.StatusCreated, toResponse(u), "user created", nil)
}

// GetUser GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := vo.ParseUserID(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	u, err := h.Get.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(u), "user", nil)
}

// SearchUsers GET /api/users/search?q=&size=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	if h.Search == nil {
		response.Success(c, http.StatusOK, []userapp.UserHit{}, "search disabled", nil)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Search.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.logError("user search failed", err, nil)
		response.Error[any](c, http.StatusBadGateway, "search unavailable", nil)
		return
	}
	if hits == nil {
		hits = []userapp.UserHit{}
	}
	response.Success(c, http.StatusOK, hits, "users", map[string]any{"count": len(hits)})
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Error[any](c, http.StatusBadRequest, ve.Message, nil)
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	default:
		h.logError("user request failed", err, nil)
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func (h *UserHandler) logError(msg string, err error, u *entity.User) {
	if h.Logger == nil {
		return
	}
	entry := h.Logger.WithError(err)
	if u != nil {
		if id, ok := u.ID(); ok {
			entry = entry.WithField("user_id", id.String())
		}
	}
	entry.Error(msg)
}
