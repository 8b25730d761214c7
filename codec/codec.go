// Package codec translates between registry-level names and store-level
// strings: service names to store keys, hosts to port-claim keys, and
// caller-supplied targets to canonical "host:port" addresses.
//
// Everything here is pure string work except LocalAddr, which consults
// the network interfaces once to resolve the local host.
package codec

import (
	"net"
	"strconv"
	"strings"
)

// Defaults applied when a Codec is built with empty fields.
const (
	DefaultPrefix    = "clerq"
	DefaultDelimiter = "::"
)

// claimSuffix marks a host's port-claim key, e.g. "clerq::10.0.0.5/p".
const claimSuffix = "/p"

// Codec derives store keys from a configured prefix and delimiter.
// The zero value is not ready to use; build one with New.
type Codec struct {
	prefix    string
	delimiter string
}

// New returns a Codec, substituting the defaults for empty arguments.
func New(prefix, delimiter string) Codec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return Codec{prefix: prefix, delimiter: delimiter}
}

// Key returns the store key for a service, "clerq::svc-a". With an empty
// service it returns the bare common prefix "clerq::", which doubles as
// the enumeration prefix for all registry keys.
func (c Codec) Key(service string) string {
	return c.prefix + c.delimiter + service
}

// ClaimKey returns the key holding the set of ports claimed on host.
func (c Codec) ClaimKey(host string) string {
	return c.Key(host) + claimSuffix
}

// Pattern returns the glob pattern matching every key this Codec emits.
func (c Codec) Pattern() string {
	return c.Key("") + "*"
}

// Service strips the common prefix from a store key, recovering the bare
// service name. ok is false for keys this Codec did not produce.
func (c Codec) Service(key string) (name string, ok bool) {
	prefix := c.Key("")
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key[len(prefix):], true
}

// Normalize turns a caller-supplied target into a canonical address:
//
//   - a numeric target is a port on localHost, negative values coerced
//     to their absolute value ("8000" -> "10.0.0.5:8000")
//   - a target containing ":" is assumed to already be "host:port" and
//     passes through unchanged
//   - anything else is unusable and yields ""
//
// Callers treat "" as a no-op address: the operation completes with
// count 0 and no store traffic.
func Normalize(target, localHost string) string {
	if target == "" {
		return ""
	}
	if strings.Contains(target, ":") {
		return target
	}
	port, err := strconv.Atoi(target)
	if err != nil {
		return ""
	}
	if port < 0 {
		port = -port
	}
	return net.JoinHostPort(localHost, strconv.Itoa(port))
}

// LocalAddr resolves the local host address used for numeric targets.
// With a named interface it returns that interface's first IPv4 address;
// with "" it returns the first IPv4 address of any interface that is up
// and not loopback, falling back to 127.0.0.1 on hosts with no external
// addressing.
func LocalAddr(iface string) (string, error) {
	if iface != "" {
		ifi, err := net.InterfaceByName(iface)
		if err != nil {
			return "", err
		}
		return firstIPv4(ifi)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addr, err := firstIPv4(&ifi); err == nil {
			return addr, nil
		}
	}
	return "127.0.0.1", nil
}

func firstIPv4(ifi *net.Interface) (string, error) {
	addrs, err := ifi.Addrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", &net.AddrError{Err: "no IPv4 address", Addr: ifi.Name}
}
