package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-hexagonal-users/internal/interface/http"
	"github.com/oksasatya/go-hexagonal-users/internal/interface/middleware"
)

// UserRateLimit configures the limiter on user creation.
type UserRateLimit struct {
	Max              int
	Window           time.Duration
	AllowPrivateNets bool
}

// UserModule registers:
//
//	POST /users          create a user (rate limited per IP)
//	GET  /users/search   search indexed users
//	GET  /users/:id      fetch a user
type UserModule struct {
	Handler *handlers.UserHandler
	RDB     *redis.Client
	Limit   UserRateLimit
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, limit UserRateLimit) *UserModule {
	return &UserModule{Handler: h, RDB: rdb, Limit: limit}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	var allow middleware.AllowFunc
	if m.Limit.AllowPrivateNets {
		allow = middleware.AllowPrivateIP()
	}
	createLimiter := middleware.RateLimit(m.RDB, m.Limit.Max, m.Limit.Window, middleware.KeyByIPAndPath(), allow)

	users := rg.Group("/users")
	users.POST("", createLimiter, m.Handler.CreateUser)
	users.GET("/search", m.Handler.SearchUsers)
	users.GET("/:id", m.Handler.GetUser)
}
