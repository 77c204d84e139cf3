// Package http wires the relay's gin router: identity middleware, the chat
// websocket endpoint and the meeting provider REST surface.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/adapters/chathub"
	"github.com/snesh-101/meetup-rtc/internal/adapters/provider"
	"github.com/snesh-101/meetup-rtc/internal/config"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

const sessionName = "MeetupSession"

// IdentityMiddleware resolves "who am I" from the shared session cookie set
// by the identity service. Requests without identity are aborted: the core
// never proceeds without one.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		id, _ := s.Get("user_id").(string)
		first, _ := s.Get("first_name").(string)
		last, _ := s.Get("last_name").(string)

		user, err := domain.NewUser(domain.UserID(id), first, last)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

type Deps struct {
	Chat     *chathub.Controller
	Issuer   *provider.TokenIssuer
	Upstream *provider.Upstream
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))

	api := r.Group("/api")

	if cfg.Mode == "debug" {
		// Stand-in for the external identity service in local dev.
		api.POST("/session", handleDevSession)
	}

	authed := api.Group("")
	authed.Use(IdentityMiddleware())

	authed.GET("/ws/chat", func(c *gin.Context) {
		deps.Chat.HandleChat(ctx, c)
	})

	authed.POST("/get-token", handleGetToken(deps.Issuer))
	authed.POST("/create-room", handleCreateRoom(deps.Issuer, deps.Upstream))
	authed.POST("/validate-room", handleValidateRoom(deps.Issuer, deps.Upstream))

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func handleDevSession(c *gin.Context) {
	var req struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.FirstName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid identity"})
		return
	}
	s := sessions.Default(c)
	s.Set("user_id", req.ID)
	s.Set("first_name", req.FirstName)
	s.Set("last_name", req.LastName)
	if err := s.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
