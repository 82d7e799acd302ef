// Package http wires the gin routers for both coordinator variants:
// static assets, the websocket upgrade endpoint and the metrics surface.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/softcube/presence/internal/adapters/ws"
	"github.com/softcube/presence/internal/app"
	"github.com/softcube/presence/internal/config"
	"github.com/softcube/presence/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetupRouter builds the monolithic coordinator's router. The room is
// supplied in the first application message, so /ws takes no parameters.
func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, reg prometheus.Gatherer) *gin.Engine {
	r := newEngine(cfg)

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	r.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.Rooms())
	})

	r.GET("/ws", func(c *gin.Context) {
		serveCoordinatorWS(ctx, cfg, coord, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

func serveCoordinatorWS(ctx context.Context, cfg *config.Config, coord *app.Coordinator, c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}

	id := domain.NewClientID()
	conn := ws.NewConn(sock, cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go conn.WriteLoop(ctx, cfg.PingPeriod)
	coord.Register(id, conn)

	conn.ReadLoop(ctx, cfg.ReadLimit, cfg.PingPeriod, func(data []byte) {
		coord.Handle(id, data)
	})

	coord.Disconnect(id)
	conn.Close()
}

func newEngine(cfg *config.Config) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	return r
}
