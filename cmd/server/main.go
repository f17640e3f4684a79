// Command server runs the orchestrator daemon: the HTTP/WebSocket surface
// over every wired component, the way the teacher's cmd/alex-server is a
// thin cobra entrypoint delegating to a single bootstrap.Run.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"autotundra/internal/delivery/server/bootstrap"
)

func main() {
	red := color.New(color.FgRed).SprintFunc()

	rootCmd := &cobra.Command{
		Use:   "autotundra-server",
		Short: "Autonomous multi-agent software-engineering orchestrator daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.Run()
		},
	}
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("autotundra-server (dev build)")
			return nil
		},
	}
}
