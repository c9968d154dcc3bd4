package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/mailhunt/internal/utils"
)

var cfgFile string

const (
	LOGO = `                _ _ _                 _
  _ __ ___   __ _(_) | |__  _   _ _ __ | |_
 | '_ ' _ \ / _' | | | '_ \| | | | '_ \| __|
 | | | | | | (_| | | | | | | |_| | | | | |_
 |_| |_| |_|\__,_|_|_|_| |_|\__,_|_| |_|\__|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mailhunt",
	Short: "Find out what an email address says about its owner.",
	Long: LOGO + `mailhunt resolves an email address to its Google accounts and enriches each one
with profile metadata, matching YouTube channels, likely locations from Maps reviews
and public calendar events.

It needs a session file with valid cookies and tokens (see session.path in the config).`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mailhunt.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")

	viper.BindPFlag("http.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
}

func setDefaults() {
	viper.SetDefault("session.path", "")
	viper.SetDefault("http.proxy", "")
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.retries", 0)
	viper.SetDefault("http.rps", 0)
	viper.SetDefault("youtube.always", false)
	viper.SetDefault("youtube.max_channels", 10)
	viper.SetDefault("avatar.default_hashes", []string{})
	viper.SetDefault("avatar.threshold", 2)
	viper.SetDefault("maps.radius_km", 30)
	viper.SetDefault("calendar.lookback", "8760h")
	viper.SetDefault("calendar.lookahead", "8760h")
	viper.SetDefault("endpoints.people", "")
	viper.SetDefault("endpoints.youtube", "")
	viper.SetDefault("endpoints.maps", "")
	viper.SetDefault("endpoints.calendar", "")
	viper.SetDefault("endpoints.calendar_api", "")
	viper.SetDefault("endpoints.geocoder", "")
	viper.SetDefault("hunt.concurrency", 3)
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Defaults first, so a freshly created config file lists every key
	setDefaults()

	home, err := homedir.Dir()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.SetConfigName(".mailhunt")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("mailhunt")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			configPath := filepath.Join(home, ".mailhunt.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	if viper.GetString("session.path") == "" {
		viper.Set("session.path", filepath.Join(home, ".mailhunt", "session.json"))
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
