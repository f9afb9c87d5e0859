package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// DefaultTimeout applies when a Target carries no timeout.
const DefaultTimeout = 10 * time.Second

// MaxOutput bounds captured command output and response snippets in details.
const MaxOutput = 200

// Checker performs a single check against a target.
// Implementations fail closed: every error becomes a Failure outcome.
type Checker interface {
	Check(ctx context.Context, t Target) domain.Outcome
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context, t Target) domain.Outcome

func (f CheckerFunc) Check(ctx context.Context, t Target) domain.Outcome { return f(ctx, t) }

// Target identifies what a probe checks. Treat it as immutable.
//
// Address holds a URL, host:port, hostname, DSN or database file depending on
// the checker. Command is an argument list and is never passed through a shell.
type Target struct {
	Address  string
	Command  []string
	Path     string
	Timeout  time.Duration
	Optional bool
}

func URL(u string) Target { return Target{Address: u} }

func Addr(a string) Target { return Target{Address: a} }

func File(path string) Target { return Target{Path: path} }

func Cmd(name string, args ...string) Target {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, name)
	argv = append(argv, args...)
	return Target{Command: argv}
}

func (t Target) WithTimeout(d time.Duration) Target {
	t.Timeout = d
	return t
}

// AsOptional marks the target so that its failures are recorded as warnings.
func (t Target) AsOptional() Target {
	t.Optional = true
	return t
}

// EffectiveTimeout returns Timeout, or DefaultTimeout when unset.
func (t Target) EffectiveTimeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout
	}
	return t.Timeout
}

// String names the target for logs.
func (t Target) String() string {
	switch {
	case len(t.Command) > 0:
		s := t.Command[0]
		for _, a := range t.Command[1:] {
			s += " " + a
		}
		return s
	case t.Path != "":
		return t.Path
	default:
		return t.Address
	}
}

// Classify maps an execution error to a failure outcome.
// Deadline errors become TIMEOUT, refused connections and unknown hosts
// become UNREACHABLE and everything else is ERROR.
func Classify(err error, timeout time.Duration) domain.Outcome {
	switch {
	case err == nil:
		return domain.Success("")
	case isTimeout(err):
		return domain.Timeout(timeout)
	case isUnreachable(err):
		return domain.Failure(domain.TextUnreachable, Truncate(err.Error()))
	default:
		return domain.Failure(domain.TextError, Truncate(err.Error()))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var de *net.DNSError
	return errors.As(err, &de) && de.IsNotFound
}

// Truncate shortens s to MaxOutput characters.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxOutput {
		return s
	}
	return string(r[:MaxOutput]) + "..."
}
