package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartplanner/core/cmd/api/commands"
)

// @title SmartPlanner API
// @version 1.0
// @description Session scoped task lists with sorting and completion tracking

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "smartplanner",
		Short: "SmartPlanner task planner",
		Long:  `SmartPlanner keeps a list of tasks per session. Tasks can be created, completed and viewed in creation, date or priority order.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewShellCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
