package conf

import (
	"fmt"
	"reflect"

	"github.com/yola1107/kratos/v2/config"
	"github.com/yola1107/kratos/v2/config/file"
	"github.com/yola1107/kratos/v2/library/event"
	"github.com/yola1107/kratos/v2/library/log/zap"
	zconf "github.com/yola1107/kratos/v2/library/log/zap/conf"
	"github.com/yola1107/kratos/v2/log"
)

const Name = "makao"
const Version = "v0.0.1"

// Bootstrap 启动配置
type Bootstrap struct {
	Server *Server `json:"server"`
	Game   *Game   `json:"game"`
}

type Server struct {
	Websocket *Websocket `json:"websocket"`
}

type Websocket struct {
	Network      string `json:"network"`
	Addr         string `json:"addr"`
	Path         string `json:"path"`
	TimeoutMs    int64  `json:"timeoutMs"`
	MaxConn      int32  `json:"maxConn"`
	SendChanSize int    `json:"sendChanSize"`
}

type Game struct {
	HandSize            int       `json:"handSize"`
	HeartbeatIntervalMs int64     `json:"heartbeatIntervalMs"`
	ClientTimeoutMs     int64     `json:"clientTimeoutMs"`
	LogCache            *LogCache `json:"logCache"`
}

type LogCache struct {
	Open bool `json:"open"`
}

func (b *Bootstrap) ValidateAll() error {
	if b.Server == nil || b.Server.Websocket == nil {
		return fmt.Errorf("server.websocket is required")
	}
	if b.Game == nil {
		return fmt.Errorf("game is required")
	}
	if b.Game.HandSize <= 0 {
		return fmt.Errorf("game.handSize must be positive")
	}
	if b.Game.HeartbeatIntervalMs <= 0 || b.Game.ClientTimeoutMs <= 0 {
		return fmt.Errorf("game heartbeat settings must be positive")
	}
	if b.Game.LogCache == nil {
		b.Game.LogCache = &LogCache{}
	}
	return nil
}

// LoadConfig 加载配置
func LoadConfig(flagconf string) (config.Config, *Bootstrap, *zconf.Bootstrap) {
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)

	if err := c.Load(); err != nil {
		panic(err)
	}

	var (
		bc Bootstrap
		lc zconf.Bootstrap
	)

	if err := c.Scan(&bc); err != nil || bc.ValidateAll() != nil {
		panic(fmt.Errorf("bootstrap config invalid: %v", err))
	}
	if err := c.Scan(&lc); err != nil || lc.ValidateAll() != nil {
		panic(fmt.Errorf("logger config invalid: %v", err))
	}

	return c, &bc, &lc
}

// WatchConfig 监听配置变更并推送事件
func WatchConfig(c config.Config, bc *Bootstrap, lc *zconf.Bootstrap, logger *zap.Logger) error {
	// 定义事件总线
	bus := event.NewEventBus()

	// 订阅配置变更事件回调
	subscribeBus(bus, logger)

	for key, ptr := range map[string]any{
		"game":          bc.Game,
		"game.logCache": bc.Game.LogCache,
		"log.logger":    lc.Log.Logger,
	} {
		if err := c.Watch(key, observer(key, ptr, bus)); err != nil {
			return fmt.Errorf("watch %q failed: %w", key, err)
		}
	}
	return nil
}

func observer(key string, target any, bus *event.Bus) func(string, config.Value) {
	return func(_ string, val config.Value) {
		typ := reflect.TypeOf(target)
		if typ.Kind() != reflect.Pointer {
			log.Errorf("[config] %q target must be a pointer", key)
			return
		}

		newVal := reflect.New(typ.Elem()).Interface()
		if err := val.Scan(newVal); err != nil {
			log.Errorf("[config] scan failed: key=%q, err=%v", key, err)
			return
		}

		if v, ok := newVal.(interface{ ValidateAll() error }); ok {
			if err := v.ValidateAll(); err != nil {
				log.Errorf("[config] validation failed: key=%q, err=%v", key, err)
				return
			}
		}

		if reflect.DeepEqual(target, newVal) {
			return
		}
		log.Warnf("[config] [%q] updated: %+v -> %+v", key, target, newVal)
		// 刷新配置 整体替换
		reflect.ValueOf(target).Elem().Set(reflect.ValueOf(newVal).Elem())
		// 通知订阅者
		bus.Publish(key, newVal)
	}
}

// 注册相关的订阅者回调
func subscribeBus(bus *event.Bus, logger *zap.Logger) {
	bus.Subscribe("log.logger", func(val any) {
		if v, ok := val.(*zconf.Logger); ok {
			if v.Level != logger.GetLevel() {
				logger.SetLevel(v.Level)
			}
		}
	})
}
