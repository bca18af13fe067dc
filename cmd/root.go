// Package cmd wires the proposalkb CLI: the MCP server, schema migrations,
// and version reporting.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "proposalkb",
	Short: "MCP server for the proposal knowledge base",
	Long: `proposalkb serves the proposal knowledge base over the Model Context
Protocol: hybrid search across internal resources and validated experience,
RFP parsing, proposal generation with validation fan-out, and processing of
human validation responses.

Run 'proposalkb serve' to start the server on stdio.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
