// Package main provides the routegen command-line tool.
package main

import "github.com/ferro-labs/routegen/internal/cli"

func main() {
	cli.Execute()
}
