// Package main is the entry point for the covhook CLI.
package main

import "covhook.dev/pkg/covhook/cmd"

func main() {
	cmd.Execute()
}
