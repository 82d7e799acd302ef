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
	"github.com/softcube/presence/internal/config"
	"github.com/softcube/presence/internal/domain"
	"github.com/softcube/presence/internal/shard"
)

// SetupEdgeRouter builds the sharded variant's stateless edge: upgrade
// requests resolve to a shard by sanitized room name, everything else is
// the static-asset collaborator. There is no fallback shard — a failed
// upgrade rejects the connection.
func SetupEdgeRouter(ctx context.Context, cfg *config.Config, pool *shard.Pool, reg prometheus.Gatherer) *gin.Engine {
	r := newEngine(cfg)

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	r.GET("/ws", func(c *gin.Context) {
		serveShardWS(ctx, cfg, pool, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("edge router setup")
	return r
}

func serveShardWS(ctx context.Context, cfg *config.Config, pool *shard.Pool, c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.String(http.StatusUpgradeRequired, "Expected websocket")
		return
	}

	room := domain.SanitizeRoomName(c.Query("room"))
	sh := pool.Acquire(room)

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		pool.Release(sh)
		log.Error().Err(err).Str("module", "adapters.http").Str("room", room.String()).Msg("ws upgrade")
		return
	}

	id := domain.NewClientID()
	conn := ws.NewConn(sock, cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go conn.WriteLoop(ctx, cfg.PingPeriod)
	sh.Connect(id, conn)

	conn.ReadLoop(ctx, cfg.ReadLimit, cfg.PingPeriod, func(data []byte) {
		sh.Frame(id, data)
	})

	sh.Disconnect(id)
	conn.Close()
	pool.Release(sh)
}
