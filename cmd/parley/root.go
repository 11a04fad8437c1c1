package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a task-oriented dialogue orchestrator",
	Long: `Parley drives multi-slot conversations: it detects what the user wants,
collects the required details one question at a time, confirms ambiguous
values, and executes the task once everything is gathered.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("tasks", "", "Path to a YAML task catalog (default: built-in HR tasks)")
	rootCmd.PersistentFlags().String("store", "memory", "State store backend: memory, file, or redis")
	rootCmd.PersistentFlags().String("data-dir", ".parley/conversations", "Directory for the file store")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (store=redis)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password (store=redis)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number (store=redis)")
	rootCmd.PersistentFlags().Duration("ttl", 0, "Conversation expiry for the redis store (0 = never)")
}
