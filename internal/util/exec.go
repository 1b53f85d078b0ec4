package util

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecuteWithTimeout runs the given executable and returns its trimmed stdout.
// The call is bounded by the given timeout, a timed out command is killed.
func ExecuteWithTimeout(timeout time.Duration, executable string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out: %s", executable)
	}
	if err != nil {
		return "", fmt.Errorf("command failed: %s: %w", executable, err)
	}

	return strings.Trim(string(out), "\n"), nil
}
