// Command geocatalogctl runs one-shot catalog loads against Arches and SensorThings servers.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
