// Package console is the line-oriented front end shared by cmd/host and
// cmd/peer. It drives a game.Controller and echoes what happens at the table.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/sirupsen/logrus"
)

const commandTimeout = 5 * time.Second

// ErrHostOnly is reported for host commands typed on a remote seat.
var ErrHostOnly = errors.New("only the host can do that")

// stateSource is implemented by controllers that cache the last state they saw.
type stateSource interface {
	State() (models.SessionState, bool)
}

// Console runs commands for one seat.
type Console struct {
	ctrl game.Controller
	host *game.Host // nil unless ctrl sits at this process's host
	log  *logrus.Entry

	mu       sync.Mutex
	out      io.Writer
	latest   *models.SessionState
	seenChat map[string]bool
	turnSeen bool
	left     bool
}

// New binds a console to ctrl. Host-only commands are enabled when ctrl is a
// seat at a local host.
func New(ctrl game.Controller, out io.Writer, logger *logrus.Entry) *Console {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Console{
		ctrl:     ctrl,
		log:      logger.WithField("component", "console"),
		out:      out,
		seenChat: make(map[string]bool),
	}
	if ctrl.Kind() == game.KindHost {
		c.host = ctrl.Host()
	}
	return c
}

// Run reads commands from in until EOF, the seat leaves, or ctx ends.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	sub := c.ctrl.Subscribe(c.observe)
	defer sub.Unsubscribe()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	c.printf("type 'help' for commands\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			done, err := c.Exec(ctx, line)
			if err != nil {
				c.printf("error: %v\n", err)
			}
			if done {
				return nil
			}
		}
	}
}

// Exec runs a single command line. done is true once the seat has left.
func (c *Console) Exec(ctx context.Context, line string) (done bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch cmd {
	case "help", "?":
		c.printf("%s", c.help())
	case "state", "s":
		s, err := c.current(ctx)
		if err != nil {
			return false, err
		}
		c.printf("%s", renderState(s, c.ctrl.PlayerID()))
	case "hand", "h":
		s, err := c.current(ctx)
		if err != nil {
			return false, err
		}
		c.printf("%s", renderHand(s, c.ctrl.PlayerID()))
	case "play", "p":
		return false, c.play(ctx, args)
	case "draw", "d":
		return false, c.ctrl.DrawCard(ctx)
	case "uno", "u":
		return false, c.ctrl.CallUno(ctx)
	case "react", "r":
		if len(args) == 0 {
			return false, errors.New("usage: react <emoji>")
		}
		return false, c.ctrl.React(ctx, args[0])
	case "chat", "say":
		return false, c.ctrl.Chat(ctx, strings.Join(args, " "))
	case "leave", "quit", "exit":
		if err := c.ctrl.Leave(ctx); err != nil {
			return true, err
		}
		c.mu.Lock()
		c.left = true
		c.mu.Unlock()
		c.printf("left the room\n")
		return true, nil
	case "start", "next", "bot", "mode", "set":
		return false, c.hostCommand(ctx, cmd, args)
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func (c *Console) hostCommand(ctx context.Context, cmd string, args []string) error {
	if c.ctrl.Kind() != game.KindHost || c.host == nil {
		return ErrHostOnly
	}
	switch cmd {
	case "start":
		return c.host.StartGame(ctx)
	case "next":
		return c.host.NextRound(ctx)
	case "bot":
		id, err := c.host.AddBot(ctx)
		if err != nil {
			return err
		}
		c.log.WithField("player", id).Debug("bot added")
		return nil
	case "mode":
		if len(args) != 1 {
			return errors.New("usage: mode quick|tournament")
		}
		return c.host.SetMode(ctx, models.Mode(strings.ToUpper(args[0])))
	case "set":
		if len(args) != 2 {
			return errors.New("usage: set <setting> <value>")
		}
		var value interface{} = args[1]
		if n, err := strconv.Atoi(args[1]); err == nil {
			value = n
		}
		return c.host.UpdateSettings(ctx, map[string]interface{}{args[0]: value})
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// play accepts a 1-based hand position or a card id, plus a color for wilds.
func (c *Console) play(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: play <n|card-id> [color]")
	}
	s, err := c.current(ctx)
	if err != nil {
		return err
	}
	me, _ := s.PlayerByID(c.ctrl.PlayerID())
	if me == nil {
		return game.ErrUnknownPlayer
	}

	cardID := args[0]
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n < 1 || n > len(me.Hand) {
			return fmt.Errorf("no card at position %d", n)
		}
		cardID = me.Hand[n-1].ID
	}

	var wild models.Color
	if len(args) > 1 {
		wild, err = parseColor(args[1])
		if err != nil {
			return err
		}
	}
	return c.ctrl.PlayCard(ctx, cardID, wild)
}

// current returns the freshest state available to this seat.
func (c *Console) current(ctx context.Context) (models.SessionState, error) {
	if c.host != nil {
		return c.host.Snapshot(ctx)
	}
	c.mu.Lock()
	latest := c.latest
	c.mu.Unlock()
	if latest != nil {
		return *latest, nil
	}
	if src, ok := c.ctrl.(stateSource); ok {
		if s, ok := src.State(); ok {
			return s, nil
		}
	}
	return models.SessionState{}, errors.New("no state received yet")
}

// observe prints what changed since the previous state. It runs on the
// publisher's goroutine and must not call back into the controller.
func (c *Console) observe(s models.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var prev models.SessionState
	if c.latest != nil {
		prev = *c.latest
	}
	c.latest = &s

	for _, entry := range newEntries(prev.Log, s.Log) {
		fmt.Fprintf(c.out, "* %s\n", entry)
	}
	for _, m := range s.ChatMessages {
		if c.seenChat[m.ID] {
			continue
		}
		c.seenChat[m.ID] = true
		fmt.Fprintf(c.out, "<%s> %s\n", m.SenderName, m.Text)
	}
	if r := s.LastReaction; r != nil && (prev.LastReaction == nil || *prev.LastReaction != *r) {
		name := r.PlayerID
		if p, _ := s.PlayerByID(r.PlayerID); p != nil {
			name = p.Name
		}
		fmt.Fprintf(c.out, "%s reacts %s\n", name, r.Emoji)
	}

	mine := false
	if s.Status == models.StatusPlaying {
		if p := s.CurrentPlayer(); p != nil && p.ID == c.ctrl.PlayerID() {
			mine = true
		}
	}
	if mine && !c.turnSeen {
		fmt.Fprintf(c.out, "your turn: %s\n", describeTop(s))
	}
	c.turnSeen = mine
}

// Left reports whether the seat gave up its place with the leave command.
func (c *Console) Left() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) help() string {
	var b strings.Builder
	b.WriteString("commands:\n")
	b.WriteString("  state | hand | play <n|id> [color] | draw | uno\n")
	b.WriteString("  react <emoji> | chat <text> | leave\n")
	if c.host != nil {
		b.WriteString("host:\n")
		b.WriteString("  start | next | bot | mode quick|tournament | set <setting> <value>\n")
	}
	return b.String()
}

// newEntries returns the part of next that follows the last entry of prev.
// The log is bounded, so a plain length comparison is not enough.
func newEntries(prev, next []string) []string {
	if len(prev) == 0 {
		return next
	}
	last := prev[len(prev)-1]
	for i := len(next) - 1; i >= 0; i-- {
		if next[i] == last {
			return next[i+1:]
		}
	}
	return next
}
