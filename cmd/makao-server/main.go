package main

import (
	"flag"
	"os"

	"github.com/yola1107/kratos/v2"
	"github.com/yola1107/kratos/v2/library/log/zap"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/makao/internal/conf"
	"github.com/yola1107/makao/internal/server"
	"github.com/yola1107/makao/internal/service"
	"github.com/yola1107/makao/internal/transport/ws"
)

var (
	Name     = conf.Name
	Version  = conf.Version
	flagconf string // -conf path
	id, _    = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, e.g. -conf config.yaml")
}

func newApp(logger log.Logger, wss *ws.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			wss,
		),
	)
}

func main() {
	flag.Parse()

	c, bc, lc := conf.LoadConfig(flagconf)
	defer c.Close()

	logger := zap.NewLogger(lc.Log)
	log.SetLogger(logger)
	defer logger.Close()

	if err := conf.WatchConfig(c, bc, lc, logger); err != nil {
		panic(err)
	}

	svc, cleanup, err := service.NewService(bc.Game)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	app := newApp(logger, server.NewWebsocketServer(bc.Server, svc))

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
