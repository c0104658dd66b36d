package loopback

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Guard пропускает только запросы с loopback-адреса.
// Данные клиники и учетные данные доступны лишь процессу интерфейса на этой же машине.
type Guard struct {
	api huma.API
	log *slog.Logger
}

func New(api huma.API, log *slog.Logger) *Guard {
	return &Guard{api: api, log: log}
}

func (g *Guard) Middleware() func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !IsLoopback(ctx.RemoteAddr()) {
			g.log.Warn("request from non-loopback address rejected",
				slog.String("remote_addr", ctx.RemoteAddr()),
				slog.String("path", ctx.URL().Path))
			_ = huma.WriteErr(g.api, ctx, http.StatusForbidden, "local API accepts loopback connections only")
			return
		}
		next(ctx)
	}
}

// IsLoopback сообщает, что адрес вида host:port принадлежит loopback-интерфейсу
func IsLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
