package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// TCPChecker succeeds when something accepts connections on Target.Address.
type TCPChecker struct {
	Dialer *net.Dialer
}

func NewTCPChecker() *TCPChecker { return &TCPChecker{Dialer: &net.Dialer{}} }

func (c *TCPChecker) Check(ctx context.Context, t Target) domain.Outcome {
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return Classify(err, timeout).WithLatency(time.Since(start))
	}
	_ = conn.Close()
	return domain.Success("listening on " + t.Address).WithLatency(time.Since(start))
}
