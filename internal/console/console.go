// Package console implements the operator REPL: a small line-oriented
// command language that gets translated into controller commands.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/sipeed/chatwarden/internal/controller"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const component = "console"

// Console reads operator commands from stdin and routes them to a
// controller.
type Console struct {
	rl   *readline.Instance
	ctrl *controller.Controller
}

// New builds a Console reading from stdin with the fixed
// "chatwarden> " prompt.
func New(ctrl *controller.Controller) (*Console, error) {
	rl, err := readline.New("chatwarden> ")
	if err != nil {
		return nil, err
	}
	return &Console{rl: rl, ctrl: ctrl}, nil
}

// Close releases the underlying terminal.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Run reads and dispatches commands until stdin is closed (io.EOF),
// the operator types "close", or ctx is cancelled.
func (c *Console) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := c.rl.Readline()
		if err != nil {
			if err != io.EOF && err != readline.ErrInterrupt {
				logctl.Warn(component, "readline error", map[string]any{"error": err.Error()})
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if stop := c.dispatch(ctx, line); stop {
			return
		}
	}
}

// dispatch parses and routes one command line, returning true if the
// console (and, via the routed Close, the controller) should stop.
func (c *Console) dispatch(ctx context.Context, line string) bool {
	msg, stop, err := parseCommand(line)
	if err != nil {
		fmt.Println(err)
		return false
	}
	if msg != nil {
		c.send(ctx, msg)
	}
	return stop
}

// parseCommand translates one operator-typed line into the
// controller command it names. It returns either a message or an
// error; usage problems come back as errors for the caller to print.
func parseCommand(line string) (msg controller.IncMessage, stop bool, err error) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "add":
		if len(args) != 1 {
			return nil, false, fmt.Errorf("usage: add <channel_id>")
		}
		return controller.AddChannel{Channel: ytlive.ChannelID(args[0])}, false, nil

	case "remove":
		if len(args) != 1 {
			return nil, false, fmt.Errorf("usage: remove <channel_id>")
		}
		return controller.RemoveChannel{Channel: ytlive.ChannelID(args[0])}, false, nil

	case "interval":
		if len(args) != 1 {
			return nil, false, fmt.Errorf("usage: interval <milliseconds>")
		}
		millis, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			return nil, false, fmt.Errorf("interval: %w", parseErr)
		}
		return controller.UpdateStreamPollInterval{Millis: millis}, false, nil

	case "params":
		if len(args) < 2 {
			return nil, false, fmt.Errorf("usage: params <channel_id> <json>")
		}
		var params ytlive.DetectorParams
		if jsonErr := json.Unmarshal([]byte(strings.Join(args[1:], " ")), &params); jsonErr != nil {
			return nil, false, fmt.Errorf("params: invalid json: %w", jsonErr)
		}
		return controller.UpdateDetectorParams{Channel: ytlive.ChannelID(args[0]), Params: params}, false, nil

	case "close":
		return controller.Close{}, true, nil

	default:
		return nil, false, fmt.Errorf("unknown command %q (add/remove/interval/params/close)", cmd)
	}
}

func (c *Console) send(ctx context.Context, msg controller.IncMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := c.ctrl.Sender().Send(sendCtx, msg); err != nil {
		fmt.Printf("failed to send command: %v\n", err)
	}
}
