package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/adapters/provider"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

func handleGetToken(issuer *provider.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := issuer.Issue()
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("token issue failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "token unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

type roomRequest struct {
	Token  string `json:"token"`
	RoomID string `json:"roomId"`
}

func handleCreateRoom(issuer *provider.TokenIssuer, up *provider.Upstream) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req roomRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
			return
		}
		if err := issuer.Verify(req.Token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		id, err := up.CreateRoom(c.Request.Context(), req.Token)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("room creation failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "room creation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": string(id)})
	}
}

// handleValidateRoom answers {valid:false} for an unknown room and reserves
// non-200 statuses for transport-level failures, so the client can tell a
// bogus id from a network problem.
func handleValidateRoom(issuer *provider.TokenIssuer, up *provider.Upstream) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req roomRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.RoomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing token or roomId"})
			return
		}
		if err := issuer.Verify(req.Token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		valid, err := up.ValidateRoom(c.Request.Context(), req.Token, domain.RoomID(req.RoomID))
		if err != nil {
			if !errors.Is(err, domain.ErrTransport) {
				log.Error().Err(err).Str("module", "adapters.http").Msg("room validation failed")
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "provider unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": valid})
	}
}
