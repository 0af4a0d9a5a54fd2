package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// @title File Upload API
// @version 1.0
// @BasePath /
func main() {
	rootCmd := &cobra.Command{
		Use:   "uploadd",
		Short: "Single-file upload server",
		Long: `uploadd accepts multipart uploads, stores them under the upload directory
and serves them back on the public route.

Configuration is read from the environment (a .env file is loaded if present).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		lsCmd(),
		catCmd(),
		rmCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
