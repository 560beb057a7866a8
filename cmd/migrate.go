package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/db"
	"github.com/taskforge/taskforge/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres document tables",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()
		dbconn := db.NewConn(conf)

		if err := store.EnsureSchema(context.Background(), dbconn); err != nil {
			fmt.Println("Unable to create tables", err)
			os.Exit(1)
		}

		fmt.Println("Tables created")
	},
}

// Register the "migrate" command
func init() {
	rootCmd.AddCommand(migrateCmd)
}
