// Package main is the entry point for glucotrack.
package main

import "github.com/jwulff/glucotrack/internal/cmd"

func main() {
	cmd.Execute()
}
