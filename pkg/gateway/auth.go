package gateway

import (
	"context"
	"fmt"
	"net"
)

// Authorizer decides whether a connecting agent may open a safety
// session. Rejections happen before any session state is created.
type Authorizer interface {
	Allow(ctx context.Context, remoteAddr string) error
}

// NoopAuthorizer admits every connection. Suitable when the gateway is
// bound to loopback and the agent runs on the same host.
type NoopAuthorizer struct{}

func (NoopAuthorizer) Allow(ctx context.Context, remoteAddr string) error {
	_ = ctx
	_ = remoteAddr
	return nil
}

// AllowlistAuthorizer admits only the configured remote addresses. An
// empty allowlist admits everyone, matching the default loopback setup.
type AllowlistAuthorizer struct {
	Allowed []string
}

func (a AllowlistAuthorizer) Allow(ctx context.Context, remoteAddr string) error {
	_ = ctx
	if len(a.Allowed) == 0 {
		return nil
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	for _, addr := range a.Allowed {
		if addr == remoteAddr || addr == host {
			return nil
		}
	}
	return fmt.Errorf("remote address not allowed: %s", remoteAddr)
}
