package pointer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandSource queries the pointer position by shelling out to a
// position tool. The command is auto-detected unless configured, the
// same way the clipboard command is picked elsewhere in the desktop
// ecosystem.
type CommandSource struct {
	command []string
	topY    float64
	timeout time.Duration
}

// NewCommandSource creates a CommandSource. command may be empty to
// auto-detect; topY is the visible screen's top edge.
func NewCommandSource(command string, topY float64) (*CommandSource, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		argv = detectPositionCommand()
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("no pointer position command available")
	}
	return &CommandSource{
		command: argv,
		topY:    topY,
		timeout: 2 * time.Second,
	}, nil
}

// detectPositionCommand returns the position command to use.
func detectPositionCommand() []string {
	if _, err := exec.LookPath("xdotool"); err == nil {
		return []string{"xdotool", "getmouselocation", "--shell"}
	}
	return nil
}

// Position runs the command and parses the pointer's Y coordinate from
// its KEY=VALUE output.
func (s *CommandSource) Position() (Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.command[0], s.command[1:]...).Output()
	if err != nil {
		return Event{}, fmt.Errorf("pointer position query failed: %w", err)
	}

	y, err := parseShellY(string(out))
	if err != nil {
		return Event{}, err
	}

	return Event{Y: y, ScreenTopY: s.topY}, nil
}

// parseShellY extracts Y= from xdotool --shell style output.
func parseShellY(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Y=") {
			continue
		}
		y, err := strconv.ParseFloat(strings.TrimPrefix(line, "Y="), 64)
		if err != nil {
			return 0, fmt.Errorf("malformed pointer position output %q: %w", line, err)
		}
		return y, nil
	}
	return 0, fmt.Errorf("pointer position output missing Y coordinate")
}
