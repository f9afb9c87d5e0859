package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// CommandChecker runs Target.Command and succeeds on exit status 0.
type CommandChecker struct {
	Dir string
	// Env is appended to the process environment. Credentials belong here
	// (MYSQL_PWD, PGPASSWORD), never in argv.
	Env []string
	// Expect lists substrings that must all appear in the output.
	Expect []string
}

func NewCommandChecker() *CommandChecker { return &CommandChecker{} }

// ExpectOutput returns a copy that also requires subs in the output.
func (c *CommandChecker) ExpectOutput(subs ...string) *CommandChecker {
	cp := *c
	cp.Expect = append(append([]string(nil), c.Expect...), subs...)
	return &cp
}

func (c *CommandChecker) Check(ctx context.Context, t Target) domain.Outcome {
	if len(t.Command) == 0 {
		return domain.Failure(domain.TextError, "no command")
	}
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Command[0], t.Command[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	// don't let a grandchild holding the pipes outlive the deadline
	cmd.WaitDelay = time.Second

	start := time.Now()
	out, err := cmd.CombinedOutput()
	latency := time.Since(start)
	msg := Truncate(strings.TrimSpace(string(out)))

	if ctx.Err() == context.DeadlineExceeded {
		return domain.Timeout(timeout).WithLatency(latency)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			code := ee.ExitCode()
			if msg == "" {
				msg = err.Error()
			}
			return domain.Failure("", msg).WithCode(code, fmt.Sprintf("EXIT %d", code)).WithLatency(latency)
		}
		// missing executable, permission problems
		return domain.Failure(domain.TextError, Truncate(err.Error())).WithLatency(latency)
	}
	for _, want := range c.Expect {
		if !strings.Contains(string(out), want) {
			return domain.Failure("", "output lacks "+want).WithCode(0, "EXIT 0").WithLatency(latency)
		}
	}
	if msg == "" {
		msg = "exit 0"
	}
	return domain.Success(msg).WithCode(0, "EXIT 0").WithLatency(latency)
}
