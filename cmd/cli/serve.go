// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"net/http"
	"os"

	"crmstack/internal/api"
	"crmstack/internal/config"
	"crmstack/internal/logger"
	"crmstack/internal/web"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

var flagServePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard and HTTP API",
	Long:  `Starts an HTTP server that serves the crmstack web dashboard and API.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWebServer()
	},
}

// runWebServer starts the HTTP server for the web UI.
func runWebServer() {
	cfg, err := config.LoadConfig()
	if err != nil {
		errorColor.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	router := mux.NewRouter()

	server := api.NewServer(cfg, flagProjectDir)
	server.RegisterRoutes(router)

	// Static files must be registered after the API routes to avoid
	// swallowing them.
	staticFileServer := http.FileServer(web.GetFileSystem())
	router.PathPrefix("/").Handler(staticFileServer)

	addr := fmt.Sprintf(":%d", flagServePort)
	fmt.Printf("Starting web server on %s\n", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Errorf("Web server failed: %v", err)
		os.Exit(1)
	}
}

func init() {
	serveCmd.Flags().IntVarP(&flagServePort, "port", "p", 8080, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}
