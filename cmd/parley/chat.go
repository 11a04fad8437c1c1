package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley"
	"github.com/parley-dev/parley/internal/presentation/tui"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long:  `Starts a terminal conversation against the configured task catalog and store.`,
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")

		engine, err := buildEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing parley: %v\n", err)
			os.Exit(1)
		}

		runner := parley.NewRunner()
		runner.Input = os.Stdin
		runner.Output = os.Stdout
		runner.OnExecute = func(ctx context.Context, task string, slots map[string]string) error {
			fmt.Printf("\n[executed] %s with %d field(s)\n", task, len(slots))
			return nil
		}

		if !plain {
			tui.PrintBanner()
			runner.Renderer = tui.NewRenderer()
		}

		if err := runner.Run(cmd.Context(), engine); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")

	// Make 'chat' the default when no subcommand is given.
	rootCmd.Run = chatCmd.Run
}
