package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/session"
)

var (
	errUsage = errors.New("usage")
	errQuit  = errors.New("quit")
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// Commands drives a store from text lines, one command per line.
type Commands struct {
	store    *session.Store
	out      io.Writer
	commands map[string]command
}

func NewCommands(store *session.Store, out io.Writer) *Commands {
	c := &Commands{store: store, out: out}
	c.commands = map[string]command{
		"raise": {"raise on|off", c.toggle(store.RaiseHand)},
		"speak": {"speak on|off", c.toggle(store.Speak)},
		"ban":   {"ban on|off", c.toggle(store.SetBan)},
		"mic": {"mic on|off", c.toggle(func(ctx context.Context, on bool) error {
			return store.SetDeviceEnabled(ctx, domain.DeviceAudio, on)
		})},
		"camera": {"camera on|off", c.toggle(func(ctx context.Context, on bool) error {
			return store.SetDeviceEnabled(ctx, domain.DeviceVideo, on)
		})},
		"accept": {"accept <user-id>", c.accept(true)},
		"reject": {"reject <user-id>", c.accept(false)},
		"cancel-hands": {"cancel-hands", func(ctx context.Context, _ []string) error {
			return store.CancelAllHandRaising(ctx)
		}},
		"mode":   {"mode Lecture|Interaction", c.mode},
		"status": {"status Idle|Started|Paused", c.status},
		"record": {"record start|stop", c.record},
		"sync": {"sync", func(ctx context.Context, _ []string) error {
			return store.RequestChannelStatusSync(ctx)
		}},
		"state": {"state", c.state},
		"quit": {"quit", func(context.Context, []string) error {
			return errQuit
		}},
	}

	return c
}

// Run executes lines from in until it is exhausted, ctx is done or a quit
// command is read.
func (c *Commands) Run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		err := c.Exec(ctx, scanner.Text())
		switch {
		case errors.Is(err, errQuit):
			return
		case err != nil:
			fmt.Fprintln(c.out, "error:", err)
		}
	}
}

func (c *Commands) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := c.commands[fields[0]]
	if !ok {
		names := maps.Keys(c.commands)
		slices.Sort(names)
		return fmt.Errorf("unknown command %q, try one of %s", fields[0], strings.Join(names, ", "))
	}

	if err := cmd.run(ctx, fields[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("%w: %s", errUsage, cmd.usage)
		}
		return err
	}

	return nil
}

func (c *Commands) toggle(fn func(context.Context, bool) error) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return errUsage
		}
		return fn(ctx, args[0] == "on")
	}
}

func (c *Commands) accept(accept bool) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		return c.store.AcceptRaiseHand(ctx, args[0], accept)
	}
}

func (c *Commands) mode(ctx context.Context, args []string) error {
	if len(args) != 1 || !domain.ClassMode(args[0]).Valid() {
		return errUsage
	}
	return c.store.SetClassMode(ctx, domain.ClassMode(args[0]))
}

func (c *Commands) status(ctx context.Context, args []string) error {
	if len(args) != 1 || !domain.RoomStatus(args[0]).Valid() {
		return errUsage
	}
	return c.store.SetRoomStatus(ctx, domain.RoomStatus(args[0]))
}

func (c *Commands) record(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	switch args[0] {
	case "start":
		return c.store.StartRecord(ctx)
	case "stop":
		return c.store.StopRecord(ctx)
	}
	return errUsage
}

func (c *Commands) state(_ context.Context, _ []string) error {
	b, err := json.MarshalIndent(c.store.Snapshot(), "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.out, string(b))
	return err
}
