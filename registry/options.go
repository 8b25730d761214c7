package registry

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"disco/codec"
)

type config struct {
	prefix      string
	delimiter   string
	expiry      time.Duration
	cacheWindow time.Duration
	iface       string
	localHost   string
	log         *zap.Logger
	metrics     *Metrics
}

func defaultConfig() config {
	return config{
		prefix:    codec.DefaultPrefix,
		delimiter: codec.DefaultDelimiter,
		log:       zap.NewNop(),
	}
}

// Option is a functional option for configuring a Registry.
type Option func(*config) error

// WithPrefix sets the key prefix shared by every key the registry
// writes (default "clerq").
func WithPrefix(prefix string) Option {
	return func(c *config) error {
		if prefix == "" {
			return fmt.Errorf("%w: empty prefix", ErrInvalidOptions)
		}
		c.prefix = prefix
		return nil
	}
}

// WithDelimiter sets the prefix/name delimiter (default "::").
func WithDelimiter(delimiter string) Option {
	return func(c *config) error {
		if delimiter == "" {
			return fmt.Errorf("%w: empty delimiter", ErrInvalidOptions)
		}
		c.delimiter = delimiter
		return nil
	}
}

// WithExpiry enables TTL refresh: every read or write of a service key
// re-arms its expiry to d. Zero disables refresh, which leaves keys
// permanent.
func WithExpiry(d time.Duration) Option {
	return func(c *config) error {
		c.expiry = d
		return nil
	}
}

// WithCacheWindow enables the read cache with the given freshness
// window. Zero or negative disables caching.
func WithCacheWindow(d time.Duration) Option {
	return func(c *config) error {
		c.cacheWindow = d
		return nil
	}
}

// WithInterface selects the network interface whose address stands in
// for numeric registration targets.
func WithInterface(name string) Option {
	return func(c *config) error {
		c.iface = name
		return nil
	}
}

// WithLocalHost pins the local address explicitly, bypassing interface
// resolution. Useful in containers and tests.
func WithLocalHost(host string) Option {
	return func(c *config) error {
		if host == "" {
			return fmt.Errorf("%w: empty local host", ErrInvalidOptions)
		}
		c.localHost = host
		return nil
	}
}

// WithLogger sets the registry's logger (default is a no-op logger).
func WithLogger(log *zap.Logger) Option {
	return func(c *config) error {
		if log == nil {
			log = zap.NewNop()
		}
		c.log = log
		return nil
	}
}

// WithMetrics attaches prometheus counters to the registry. A nil
// Metrics leaves instrumentation off.
func WithMetrics(m *Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}
