package cmd

import (
	"github.com/spf13/cobra"

	"github.com/taskforge/taskforge/internal/api"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the task management server",
	Run: func(cmd *cobra.Command, args []string) {
		s := api.New()
		s.Start()
	},
}

// Register the "server" command
func init() {
	rootCmd.AddCommand(serverCmd)
}
