// Command ratchet inspects and validates the kernels of the ratchet GPU
// compute engine.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
