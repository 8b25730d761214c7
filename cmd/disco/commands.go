package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"disco/codec"
	"disco/port"
	"disco/registry"
)

func init() {
	rootCmd.AddCommand(upCmd, downCmd, getCmd, allCmd, servicesCmd, destroyCmd, portCmd)
	portCmd.AddCommand(portFindCmd, portReleaseCmd)
	portFindCmd.Flags().Int("start", 0, "lowest port to consider")
	cobra.CheckErr(viper.BindPFlag("start", portFindCmd.Flags().Lookup("start")))
}

var upCmd = &cobra.Command{
	Use:   "up SERVICE TARGET",
	Short: "Register a service address (TARGET is a port or host:port)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			added, err := reg.Up(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), added)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down SERVICE TARGET",
	Short: "Deregister a service address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			removed, err := reg.Down(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), removed)
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get SERVICE",
	Short: "Print one live address of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			addr, err := reg.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if addr == "" {
				return fmt.Errorf("no live instances of %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		})
	},
}

var allCmd = &cobra.Command{
	Use:   "all SERVICE",
	Short: "Print every live address of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			addrs, err := reg.All(ctx, args[0])
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				fmt.Fprintln(cmd.OutOrStdout(), addr)
			}
			return nil
		})
	},
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List every service with a live registration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			names, err := reg.Services(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy SERVICE",
	Short: "Expire a service's whole registration key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			return reg.Destroy(ctx, args[0])
		})
	},
}

var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Claim and release ports",
}

var portFindCmd = &cobra.Command{
	Use:   "find [HOST]",
	Short: "Find a free port, claiming it for HOST when given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host := ""
		if len(args) == 1 {
			host = args[0]
		}
		st, cleanup := newStore()
		defer cleanup()

		alloc := port.NewAllocator(st,
			port.WithCodec(codec.New(viper.GetString("prefix"), viper.GetString("delimiter"))),
			port.WithExpiry(viper.GetDuration("expire")),
		)
		ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
		defer cancel()

		p, err := alloc.Find(ctx, viper.GetInt("start"), host)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var portReleaseCmd = &cobra.Command{
	Use:   "release PORT HOST",
	Short: "Release a previously claimed port",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q", args[0])
		}
		st, cleanup := newStore()
		defer cleanup()

		alloc := port.NewAllocator(st,
			port.WithCodec(codec.New(viper.GetString("prefix"), viper.GetString("delimiter"))),
			port.WithExpiry(viper.GetDuration("expire")),
		)
		ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
		defer cancel()

		removed, err := alloc.Release(ctx, p, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), removed)
		return nil
	},
}
