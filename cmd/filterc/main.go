// Command filterc compiles OPTIMADE-style filter expressions against a
// property registry and prints the resulting backend-native queries.
// It is a developer tool for inspecting what a filter lowers to on
// each backend.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
