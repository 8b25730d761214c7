// Command disco operates a service registry from the shell: register and
// deregister addresses, query live instances, and claim ports, against a
// Redis-backed store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
