package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/nf/c8/host"
)

var errQuit = errors.New("quit")

// commands lists the command names, for completion.
var commands = []string{"clock", "volume", "fg", "bg", "load", "reset", "save", "keys", "quit"}

// commander applies settings commands typed by the user.
type commander struct {
	r            *host.Runner
	settingsFile string

	// loaded is called with the source of every ROM loaded by a command.
	loaded func(src string)
}

// run executes one command line. It returns errQuit for "quit".
func (c *commander) run(line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "":
		return nil
	case "clock":
		hz, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("clock: %w", err)
		}
		c.r.SetClock(hz)
		log.Printf("clock %v Hz", c.r.Settings().Clock())
	case "volume":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("volume: %w", err)
		}
		c.r.SetVolume(v)
		log.Printf("volume %v", c.r.Settings().Volume())
	case "fg", "bg":
		col, err := host.ParseColor(arg)
		if err != nil {
			return err
		}
		pair := c.r.Settings().Colors()
		if cmd == "fg" {
			pair.FG = col
		} else {
			pair.BG = col
		}
		c.r.SetColors(pair)
	case "load":
		if arg == "" {
			return errors.New("load: missing file or URL")
		}
		if c.r.LoadSource(context.Background(), arg, true) {
			return fmt.Errorf("load %s: loaded fallback program", arg)
		}
		if c.loaded != nil {
			c.loaded(arg)
		}
	case "reset":
		c.r.Reset(true)
	case "save":
		name := arg
		if name == "" {
			name = c.settingsFile
		}
		if name == "" {
			return errors.New("save: no settings file")
		}
		if err := c.r.Settings().Save(name); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		log.Printf("saved settings to %s", name)
	case "keys":
		var b strings.Builder
		for i, k := range host.Layout {
			if i > 0 && i%4 == 0 {
				b.WriteString(" | ")
			} else if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%c=%v", host.DefaultKeyMap.Symbol(k), k)
		}
		log.Print(b.String())
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// complete returns the commands that start with prefix.
func (c *commander) complete(prefix string) (entries []string) {
	if prefix == "" || strings.Contains(prefix, " ") {
		return nil
	}
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, prefix) {
			entries = append(entries, cmd)
		}
	}
	return entries
}

// readCommands runs each line read from r as a command until r is
// exhausted or a quit command is read. Errors are logged.
func (c *commander) readCommands(r io.Reader, quit func()) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if err := c.run(s.Text()); errors.Is(err, errQuit) {
			quit()
			return
		} else if err != nil {
			log.Print(err)
		}
	}
}
