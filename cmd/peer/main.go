// cmd/peer joins an UNO room hosted elsewhere on the network.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jason-s-yu/unoparty/internal/console"
	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/peer"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

type CLI struct {
	Room        string        `arg:"" help:"Room code shown by the host."`
	Server      string        `default:"ws://localhost:8080" env:"UNO_SERVER" help:"Host address."`
	Name        string        `default:"Player" env:"UNO_NAME" help:"Your display name."`
	Avatar      string        `env:"UNO_AVATAR" help:"Your avatar."`
	SessionFile string        `default:".uno-session.json" env:"UNO_SESSION_FILE" help:"Where to remember your seat for reconnecting."`
	Fresh       bool          `help:"Ignore a remembered seat and join as a new player."`
	JoinTimeout time.Duration `default:"10s" help:"How long to wait for the host to answer."`
	LogLevel    string        `default:"warn" env:"UNO_LOG_LEVEL" help:"Log level."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("unopeer"),
		kong.Description("Join an UNO room"),
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
	log := logrus.NewEntry(logger)

	code, ok := game.NormalizeRoomCode(c.Room)
	if !ok {
		return fmt.Errorf("invalid room code %q", c.Room)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	existingID := ""
	if !c.Fresh {
		ref, err := peer.LoadRef(c.SessionFile)
		if err != nil {
			log.WithError(err).Warn("ignoring unreadable session file")
		} else if ref.RoomID == code {
			existingID = ref.PlayerID
		}
	}

	client, err := peer.Connect(ctx, c.Server, code, peer.Config{
		JoinTimeout: c.JoinTimeout,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	ref, err := client.Join(ctx, c.Name, c.Avatar, existingID)
	if err != nil {
		var joinErr *peer.JoinError
		if errors.As(err, &joinErr) && existingID != "" {
			_ = peer.ClearRef(c.SessionFile)
		}
		return err
	}
	if err := peer.SaveRef(c.SessionFile, ref); err != nil {
		log.WithError(err).Warn("could not remember session")
	}
	fmt.Printf("joined room %s as %s\n", ref.RoomID, ref.Name)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-client.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	con := console.New(client, os.Stdout, log)
	if err := con.Run(ctx, os.Stdin); err != nil {
		return err
	}
	if con.Left() {
		return peer.ClearRef(c.SessionFile)
	}
	select {
	case <-client.Done():
		fmt.Println("connection to the host was lost; run again to rejoin")
	default:
	}
	return nil
}
