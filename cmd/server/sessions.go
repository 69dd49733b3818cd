package main

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-match-api/internal/config"
	"github.com/yukikurage/collab-match-api/internal/logger"
)

const (
	sessionBackendRedis  = "redis"
	sessionBackendCookie = "cookie"
)

// newSessionStore keeps sessions in redis when it is reachable and falls
// back to signed cookies otherwise. It returns the store and the backend name.
func newSessionStore(cfg *config.Config) (sessions.Store, string) {
	var store sessions.Store
	backend := sessionBackendRedis

	rs, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		cfg.RedisAddr(),           // Redis address from config
		"",                        // username (empty for default user)
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logger.Warn("Redis session store unavailable, using cookie sessions", "redis_addr", cfg.RedisAddr(), "error", err)
		store = cookie.NewStore([]byte(cfg.SessionSecret))
		backend = sessionBackendCookie
	} else {
		store = rs
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, backend
}
