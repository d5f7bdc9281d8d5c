// Flowboard CLI — инструмент командной строки для управления
// workflows через HTTP API.
//
// Использование:
//
//	flowboard [--api-url URL] [--output FORMAT] <command> <subcommand> [flags]
//
// Команды:
//
//	workflow  Управление workflows
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Flowboard/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var outputFormat string

	rootCmd := &cobra.Command{
		Use:           "flowboard",
		Short:         "Flowboard CLI — workflow editor tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "Output format: table, json, yaml")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output {
		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return cli.NewOutput(format)
	}

	rootCmd.AddCommand(
		cli.NewWorkflowCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
