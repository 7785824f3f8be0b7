// cmd/host runs an UNO room on this machine: the session, the websocket
// endpoint peers dial, and a console for the hosting player.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jason-s-yu/unoparty/internal/cache"
	"github.com/jason-s-yu/unoparty/internal/console"
	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type CLI struct {
	Addr     string `default:":8080" env:"UNO_ADDR" help:"Address to accept peers on."`
	Room     string `env:"UNO_ROOM" help:"Room code to use (random when empty)."`
	Name     string `default:"Host" env:"UNO_NAME" help:"Your display name."`
	Avatar   string `env:"UNO_AVATAR" help:"Your avatar."`
	Headless bool   `env:"UNO_HEADLESS" help:"Run without the interactive console."`
	Bots     int    `default:"0" help:"Bots to seat before the game starts."`

	Config        string        `default:"unohost.hcl" env:"UNO_CONFIG" help:"HCL file with room settings (optional)."`
	Mode          string        `env:"UNO_MODE" help:"QUICK or TOURNAMENT (overrides the config file)."`
	TurnTimer     int           `env:"UNO_TURN_TIMER" help:"Seconds per turn (overrides the config file)."`
	MaxOccupants  int           `env:"UNO_MAX_OCCUPANTS" help:"Players and spectators allowed in the room (overrides the config file)."`
	HandSize      int           `env:"UNO_HAND_SIZE" help:"Cards dealt per player (overrides the config file)."`
	Seed          *uint64       `help:"Deterministic shuffle seed."`
	RedisAddr     string        `env:"UNO_REDIS_ADDR" help:"Redis address for the action log (disabled when empty)."`
	RedisDB       int           `default:"0" env:"UNO_REDIS_DB" help:"Redis database number."`
	RedisQueue    string        `default:"uno_actions" env:"UNO_REDIS_QUEUE" help:"Redis list receiving action records."`
	LogLevel      string        `default:"info" env:"UNO_LOG_LEVEL" help:"Log level."`
	ShutdownGrace time.Duration `default:"5s" help:"Time allowed for connections to drain."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("unohost"),
		kong.Description("Host an UNO room for players on your network"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	settings, err := game.LoadSettingsFile(c.Config, game.DefaultSettings())
	if err != nil {
		return err
	}
	if settings, err = game.ParseSettings(c.overrides(), settings); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := game.Config{
		RoomID:     c.Room,
		HostName:   c.Name,
		HostAvatar: c.Avatar,
		Settings:   &settings,
		Logger:     logger,
	}
	if c.Seed != nil {
		cfg.Seed = *c.Seed
	}
	if c.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, c.RedisAddr, c.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cfg.ActionLog = cache.NewPublisher(rdb, c.RedisQueue)
		logger.WithField("queue", c.RedisQueue).Info("publishing actions to redis")
	}

	h := game.NewHost(cfg)
	defer h.Close()
	for i := 0; i < c.Bots; i++ {
		if _, err := h.AddBot(ctx); err != nil {
			return err
		}
	}

	rs := handlers.NewRoomServer(logger)
	rs.Open(h)

	srv := &http.Server{Addr: c.Addr, Handler: handlers.Routes(logger, rs)}

	logger.WithFields(logrus.Fields{
		"addr": c.Addr,
		"room": h.RoomID(),
		"mode": settings.Mode,
	}).Info("room open")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-h.Done():
		}
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if !c.Headless {
		g.Go(func() error {
			con := console.New(h.HostSeat(), os.Stdout, logrus.NewEntry(logger))
			os.Stdout.WriteString("room code: " + h.RoomID() + "\n")
			err := con.Run(ctx, os.Stdin)
			h.Close()
			return err
		})
	}
	return g.Wait()
}

// overrides collects the settings given on the command line.
func (c *CLI) overrides() map[string]interface{} {
	out := make(map[string]interface{})
	if c.Mode != "" {
		out["mode"] = strings.ToUpper(c.Mode)
	}
	if c.TurnTimer != 0 {
		out["turnTimerSec"] = c.TurnTimer
	}
	if c.MaxOccupants != 0 {
		out["maxOccupants"] = c.MaxOccupants
	}
	if c.HandSize != 0 {
		out["handSize"] = c.HandSize
	}
	return out
}
