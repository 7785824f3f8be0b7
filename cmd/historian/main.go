// cmd/historian drains the Redis action queue filled by unohost and archives
// each room's moves as JSON lines.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jason-s-yu/unoparty/internal/cache"
	"github.com/jason-s-yu/unoparty/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

type CLI struct {
	RedisAddr  string        `default:"localhost:6379" env:"UNO_REDIS_ADDR" help:"Redis address."`
	RedisDB    int           `default:"0" env:"UNO_REDIS_DB" help:"Redis database number."`
	Queue      string        `default:"uno_actions" env:"UNO_REDIS_QUEUE" help:"Redis list to drain."`
	Dir        string        `default:"archive" env:"HISTORIAN_DIR" help:"Directory receiving <ROOM>.jsonl files."`
	BatchSize  int           `default:"20" env:"HISTORIAN_BATCH_SIZE" help:"Records buffered before a write."`
	FlushDelay time.Duration `default:"500ms" env:"HISTORIAN_FLUSH_DELAY" help:"Longest a record waits before a write."`
	LogLevel   string        `default:"info" env:"UNO_LOG_LEVEL" help:"Log level."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("unohistorian"),
		kong.Description("Archive UNO room actions from Redis"),
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, c.RedisAddr, c.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	svc := historian.New(rdb, historian.Config{
		Queue:      c.Queue,
		Dir:        c.Dir,
		BatchSize:  c.BatchSize,
		FlushDelay: c.FlushDelay,
		Logger:     logrus.NewEntry(logger),
	})
	return svc.Run(ctx)
}
