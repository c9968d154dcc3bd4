package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/mailhunt/internal/server"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/hunt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve hunts over HTTP",
	Long:  `Start a web server answering GET /{email} and GET /{email}/{sources} with JSON, plus /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")

		user, _ := cmd.Flags().GetString("username")
		if user == "" {
			user = viper.GetString("server.username")
		}
		pass, _ := cmd.Flags().GetString("password")
		if pass == "" {
			pass = viper.GetString("server.password")
		}

		hunter, err := hunt.NewHunter(hunterConfig(viper.GetViper()))
		if err != nil {
			utils.Log.Fatalf("Invalid configuration: %v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(hunter, user, pass)
		if err := srv.Start(ctx, addr); err != nil {
			utils.Log.Fatalf("Server failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "0.0.0.0:3601", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional, overrides server.username)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional, overrides server.password)")
}
