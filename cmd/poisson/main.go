// Command poisson analyzes three-candidate Poisson voting games from YAML
// documents.
//
// Usage:
//
//	poisson best-response tau.yaml
//	poisson iterate --numeric=float --log-level=debug profile.yaml
//	echo 'tau: {a: 1/10, ab: 3/5, c: 3/10}' | poisson events -
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("poisson failed", "err", err)
		os.Exit(1)
	}
}
