package main

import (
	"context"
	"fmt"
	"os"

	"notecheck/utils"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	utils.LoadDotEnv()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
