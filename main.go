// Package main is the entry point for the daemonfield application. It
// delegates argument parsing and mode dispatch to the cmd package (cobra).
package main

import (
	"daemonfield/cmd"
)

func main() {
	cmd.Execute()
}
