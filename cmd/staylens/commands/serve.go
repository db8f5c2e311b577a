package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/staylens/internal/server"
	"github.com/jmylchreest/staylens/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the listing tools over HTTP",
	Long: `Start an HTTP server exposing each tool as POST /tools/{name} with a JSON
argument object. GET /tools lists the tools and GET /healthz reports liveness.

Example:
  staylens serve --addr :8080
  curl -s localhost:8080/tools/detail -d '{"id":"12345678"}'`,
	Args: cobra.NoArgs,
	RunE: run(func(a *app, cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return server.New(a.client).ListenAndServe(a.ctx, addr)
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
}
