package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection to the report server",
		Long:  "Shows the configured server URL and tests whether its health endpoint responds.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

type statusResult struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	res := statusResult{Server: getServerURL()}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	if err := newAPIClient().Health(ctx); err != nil {
		res.Error = err.Error()
	} else {
		res.Reachable = true
	}

	if isJSON() {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "Server:  %s\n", res.Server)
	if res.Reachable {
		fmt.Fprintln(out, "Status:  ✓ connected")
	} else {
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%s)\n", res.Error)
	}
	return nil
}
