package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	// ExitCodeError covers configuration errors and unusable dump directories.
	ExitCodeError = 1
)

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "actuatorprobe",
		Short: "Harvest Spring Boot actuator data around a load test",
		Long: `actuatorprobe attaches to a load test run. Before the test it reads
selected environment properties and the build version of the service under
test from its actuator endpoints and publishes them as test-run config. During
the test it writes heap and thread dumps on schedule.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits with ExitCodeError on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "actuatorprobe version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCodeError)
	}
}
