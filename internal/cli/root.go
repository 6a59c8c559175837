// Package cli defines the cobra command tree for vr.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/client"
)

var flagFormat string

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vr",
		Short:         "Technical visit reports",
		Long:          "Collect technical site visits and render them as PDF reports. Run the form server, render records offline, or submit a visit to a running server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")

	root.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newSubmitCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the report server.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
