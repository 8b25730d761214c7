package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"disco/registry"
	"disco/store"
)

var rootCmd = &cobra.Command{
	Use:           "disco",
	Short:         "Service registry and discovery over a key/set store",
	Long:          `disco registers service addresses in a shared Redis-backed registry, queries live instances, and claims ports per host. Stale registrations expire by TTL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("redis", "127.0.0.1:6379", "redis address of the backing store")
	pf.String("prefix", "", "registry key prefix (default \"clerq\")")
	pf.String("delimiter", "", "registry key delimiter (default \"::\")")
	pf.Duration("expire", 0, "TTL re-armed on every registry operation (0 disables)")
	pf.Duration("cache", 0, "read-cache freshness window (0 disables)")
	pf.String("iface", "", "network interface resolved for numeric targets")
	pf.Bool("verbose", false, "log store traffic to stderr")

	viper.SetEnvPrefix("disco")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	cobra.CheckErr(viper.BindPFlags(pf))
}

// newRegistry wires the configured store and registry for one command
// invocation. The returned cleanup closes the store connection.
func newRegistry() (*registry.Registry, func(), error) {
	var st store.Store = store.NewRedisStore(viper.GetString("redis"))
	if viper.GetBool("verbose") {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
		st = store.WithLogging(st, log)
	}

	opts := []registry.Option{
		registry.WithExpiry(viper.GetDuration("expire")),
		registry.WithCacheWindow(viper.GetDuration("cache")),
	}
	if p := viper.GetString("prefix"); p != "" {
		opts = append(opts, registry.WithPrefix(p))
	}
	if d := viper.GetString("delimiter"); d != "" {
		opts = append(opts, registry.WithDelimiter(d))
	}
	if i := viper.GetString("iface"); i != "" {
		opts = append(opts, registry.WithInterface(i))
	}

	reg, err := registry.New(st, opts...)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return reg, func() { _ = reg.Close() }, nil
}

func newStore() (store.Store, func()) {
	st := store.NewRedisStore(viper.GetString("redis"))
	return st, func() { _ = st.Close() }
}

// opTimeout bounds each CLI invocation; the library itself imposes none.
const opTimeout = 10 * time.Second

// withRegistry runs fn with a wired registry and a bounded context,
// closing the store afterwards.
func withRegistry(cmd *cobra.Command, fn func(context.Context, *registry.Registry) error) error {
	reg, cleanup, err := newRegistry()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
	defer cancel()
	return fn(ctx, reg)
}
