package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chatdeploy/configurator/cli"
	"github.com/chatdeploy/configurator/cli/cmd"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		var reported *cmd.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
