// Package main is the entry point for the adsctl CLI.
package main

import "github.com/adsctl/adsctl/internal/cli"

func main() {
	cli.Execute()
}
