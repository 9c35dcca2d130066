// Package dnsx implements spec.md §4.5's DNS surface: lookup and
// lookupService, wired onto Go's net.Resolver and onto the loop's worker
// pool so resolution never blocks the loop goroutine. Both are
// callback-style only; no promise-style variant is provided.
package dnsx

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"jsrtgo/loop"
	"jsrtgo/rterr"
)

// Family selects AF_UNSPEC/AF_INET/AF_INET6 filtering for Lookup, per
// spec.md §4.5's family option.
type Family int

const (
	FamilyUnspec Family = 0
	FamilyIPv4   Family = 4
	FamilyIPv6   Family = 6
)

// LookupOptions mirrors spec.md §4.5's lookup() option table.
type LookupOptions struct {
	Family   Family
	Hints    int
	All      bool
	Verbatim bool
}

// Address is one resolved result, `{address, family}` per spec.md §4.5's
// result shape.
type Address struct {
	Address string
	Family  int
}

// Result is the value handed to a lookupService callback: the resolved
// hostname and service name as a single value. spec.md §9's Open Question
// about lookupService's double-promise is resolved (SPEC_FULL.md §9, not
// guessed) by returning one struct instead of two separate promises.
type Result struct {
	Hostname string
	Service  string
}

// errCode maps Go resolver failures onto the ENOTFOUND/EADDRFAMILY/etc.
// taxonomy of spec.md §4.5's "Error mapping from loop error codes".
func errCode(err error) string {
	var dnsErr *net.DNSError
	if asDNSError(err, &dnsErr) {
		if dnsErr.IsNotFound || dnsErr.IsTimeout || dnsErr.IsTemporary {
			return "ENOTFOUND"
		}
	}
	var addrErr *net.AddrError
	if asAddrError(err, &addrErr) {
		return "EADDRFAMILY"
	}
	return "UNKNOWN"
}

func asDNSError(err error, target **net.DNSError) bool {
	for err != nil {
		if e, ok := err.(*net.DNSError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func asAddrError(err error, target **net.AddrError) bool {
	for err != nil {
		if e, ok := err.(*net.AddrError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func newLookupError(err error, hostname string) error {
	return rterr.New(rterr.SystemErr, fmt.Sprintf("%s: %s", errCode(err), err.Error())).
		Context("code", errCode(err)).
		Context("syscall", "getaddrinfo").
		Context("hostname", hostname)
}

// Lookup resolves hostname according to opts, invoking cb on the loop
// goroutine with either a single Address (opts.All == false) or a slice of
// Address (opts.All == true), per spec.md §4.5's result shape.
func Lookup(l *loop.Loop, hostname string, opts LookupOptions, cb func(err error, result any)) {
	l.QueueWork(func() any {
		network := "ip"
		switch opts.Family {
		case FamilyIPv4:
			network = "ip4"
		case FamilyIPv6:
			network = "ip6"
		}
		ips, err := net.DefaultResolver.LookupIP(context.Background(), network, hostname)
		if err != nil {
			return err
		}
		out := make([]Address, 0, len(ips))
		for _, ip := range ips {
			fam := 4
			if ip.To4() == nil {
				fam = 6
			}
			out = append(out, Address{Address: ip.String(), Family: fam})
		}
		return out
	}, func(result any) {
		if err, ok := result.(error); ok {
			cb(newLookupError(err, hostname), nil)
			return
		}
		addrs := result.([]Address)
		if len(addrs) == 0 {
			cb(newLookupError(&net.DNSError{Err: "no addresses", Name: hostname, IsNotFound: true}, hostname), nil)
			return
		}
		if opts.All {
			cb(nil, addrs)
			return
		}
		cb(nil, addrs[0])
	})
}

// LookupService resolves the hostname and service name for address:port,
// invoking cb on the loop goroutine with a single Result (the
// single-promise fix of spec.md §9's Open Question, not the reference's
// double-promise behavior).
func LookupService(l *loop.Loop, address string, port int, cb func(err error, result Result)) {
	l.QueueWork(func() any {
		names, err := net.DefaultResolver.LookupAddr(context.Background(), address)
		hostname := address
		if err == nil && len(names) > 0 {
			hostname = names[0]
		} else if err != nil && len(names) == 0 {
			return err
		}
		service := strconv.Itoa(port)
		if s, ok := lookupPortName(port); ok {
			service = s
		}
		return Result{Hostname: hostname, Service: service}
	}, func(result any) {
		if err, ok := result.(error); ok {
			cb(newLookupError(err, address), Result{})
			return
		}
		cb(nil, result.(Result))
	})
}

// lookupPortName maps well-known ports to their service names, a small
// stand-in for /etc/services lookups since Go's standard library does not
// expose getservbyport.
func lookupPortName(port int) (string, bool) {
	switch port {
	case 80:
		return "http", true
	case 443:
		return "https", true
	case 22:
		return "ssh", true
	case 21:
		return "ftp", true
	case 25:
		return "smtp", true
	}
	return "", false
}

// Resolve stubs the resolve* family (resolve4, resolve6, resolveCname,
// ...): spec.md §4.5 marks this a deliberate scope limit, "a full c-ares
// style resolver is out of the core", returning ENOTIMPL to every call.
func Resolve(l *loop.Loop, hostname, rrtype string, cb func(err error, records []string)) {
	l.Post(func() {
		cb(rterr.New(rterr.NotImplemented, "resolve is not implemented").Context("rrtype", rrtype), nil)
	})
}
