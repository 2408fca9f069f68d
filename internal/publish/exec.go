package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ExecPublisher runs an external command once per message with the JSON
// message on stdin. It bridges to arms driven by a local program, such as a
// serial controller script.
type ExecPublisher struct {
	command []string
	timeout time.Duration
}

// NewExecPublisher returns a publisher running command (name followed by args).
func NewExecPublisher(command []string, timeout time.Duration) *ExecPublisher {
	return &ExecPublisher{command: command, timeout: timeout}
}

func (p *ExecPublisher) Publish(ctx context.Context, msg Message) error {
	if len(p.command) == 0 {
		return errors.New("exec publisher has no command")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(append(payload, '\n'))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("command %s timed out after %s", p.command[0], p.timeout)
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return fmt.Errorf("command %s failed: %w, stderr: %s", p.command[0], err, s)
		}
		return fmt.Errorf("command %s failed: %w", p.command[0], err)
	}
	return nil
}

func (p *ExecPublisher) Close() error { return nil }
