// Package http wires the outer HTTP surface: static assets, health,
// uploads, a small REST view over rooms, and the websocket endpoint.
// The core never reads or writes these paths.
package http

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avelis/huddle/internal/adapters/signal"
	"github.com/avelis/huddle/internal/config"
	"github.com/avelis/huddle/internal/core"
	"github.com/avelis/huddle/internal/domain"
)

// ClientTokenMiddleware mints a stable per-client token cookie which is
// used as the websocket connection id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller, reg *core.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.Static("/uploads", cfg.UploadPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	started := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"uptime":      time.Since(started).Seconds(),
			"connections": ctl.Connections(),
		})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	// GET /api/rooms — list live rooms
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.Rooms()})
	})

	// GET /api/rooms/:code/members — member list in join order
	api.GET("/rooms/:code/members", func(c *gin.Context) {
		code := domain.RoomCode(c.Param("code"))
		members, ok := reg.Members(code)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
	})

	// POST /api/upload — single named file, returns a derived URL
	api.POST("/upload", func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
			return
		}
		name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(file.Filename))
		dst := filepath.Join(cfg.UploadPath, name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("upload save")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": "/uploads/" + name})
	})

	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	return r
}
