package probe

import (
	"context"
	"errors"
	"net"
	"strings"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServfail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	IPs           []net.IP
	CNAME         string
	Nameservers   []string
	Class         string
	ResolverError string
}

func (s DNSStatus) HasAddress() bool { return len(s.IPs) > 0 }

// CheckDNS resolves domain with r and classifies the answer.
// A nil resolver means the OS resolver.
func CheckDNS(ctx context.Context, r *net.Resolver, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") || strings.ContainsAny(s.Domain, " /") {
		s.Class = DNSInvalidName
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	switch {
	case err == nil && len(ips) > 0:
		s.IPs = ips
		s.Class = DNSResolves
	case err != nil:
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfail
			}
		}
	}
	// literal IPs need no further lookups
	if net.ParseIP(s.Domain) != nil {
		return s
	}

	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}
	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		switch {
		case s.HasAddress():
			s.Class = DNSResolves
		case len(s.Nameservers) > 0:
			s.Class = DNSNoARecord
		case s.ResolverError != "":
			s.Class = DNSServfail
		default:
			s.Class = DNSNXDomain
		}
	}
	return s
}
