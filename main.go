// Package main provides the pepcensus CLI entrypoint.
package main

import (
	"context"
	"os"

	"github.com/lukemcguire/pepcensus/cli"
)

func main() {
	os.Exit(cli.ExecuteContext(context.Background()))
}
