package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// DNSChecker resolves the host part of Target.Address.
type DNSChecker struct {
	Resolver *net.Resolver
}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{}
}

func (d *DNSChecker) Check(ctx context.Context, t Target) domain.Outcome {
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	s := CheckDNS(ctx, d.Resolver, extractHost(t.Address))
	latency := time.Since(start)

	switch s.Class {
	case DNSResolves:
		ips := make([]string, 0, len(s.IPs))
		for _, ip := range s.IPs {
			ips = append(ips, ip.String())
		}
		return domain.Success(fmt.Sprintf("%s -> %s", s.Domain, strings.Join(ips, ", "))).
			WithCode(0, s.Class).WithLatency(latency)
	case DNSServfail:
		if ctx.Err() == context.DeadlineExceeded {
			return domain.Timeout(timeout).WithLatency(latency)
		}
		return domain.Failure(s.Class, Truncate(s.ResolverError)).WithLatency(latency)
	case DNSNXDomain:
		return domain.Failure(domain.TextUnreachable, s.Domain+": "+s.Class).WithLatency(latency)
	default:
		return domain.Failure(s.Class, s.Domain+": "+s.Class).WithLatency(latency)
	}
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		if h, _, err := net.SplitHostPort(raw); err == nil {
			return h
		}
		return raw
	}
	return u.Hostname()
}
