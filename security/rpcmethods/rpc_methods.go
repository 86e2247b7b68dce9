// Package rpcmethods decides whether unsafe RPC methods may be served.
package rpcmethods

import (
	"fmt"
	"net"
	"strings"

	lserrors "github.com/mezonai/lightsync/errors"
)

// Policy selects which RPC methods are exposed.
type Policy string

const (
	// PolicySafe serves only safe methods.
	PolicySafe Policy = "safe"
	// PolicyUnsafe serves every method.
	PolicyUnsafe Policy = "unsafe"
	// PolicyAuto serves unsafe methods only on a loopback listener.
	PolicyAuto Policy = "auto"
)

// ParsePolicy accepts the policy names case-insensitively. Empty means auto.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAuto:
		return PolicyAuto, nil
	case PolicySafe:
		return PolicySafe, nil
	case PolicyUnsafe:
		return PolicyUnsafe, nil
	default:
		return "", fmt.Errorf("unknown rpc methods policy %q", s)
	}
}

// DenyUnsafe is the resolved gate for a listener.
type DenyUnsafe bool

const (
	AllowUnsafeCalls DenyUnsafe = false
	DenyUnsafeCalls  DenyUnsafe = true
)

// Resolve applies policy to the address the RPC server listens on.
func Resolve(policy Policy, listenAddr string) DenyUnsafe {
	switch policy {
	case PolicyUnsafe:
		return AllowUnsafeCalls
	case PolicySafe:
		return DenyUnsafeCalls
	default:
		if IsLoopback(listenAddr) {
			return AllowUnsafeCalls
		}
		return DenyUnsafeCalls
	}
}

// IsLoopback reports whether addr (host or host:port) only binds loopback interfaces.
func IsLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}

// CheckIfSafe returns UnsafeCallRejected when unsafe calls are denied.
func (d DenyUnsafe) CheckIfSafe() error {
	if d {
		return lserrors.UnsafeCallRejected()
	}
	return nil
}
