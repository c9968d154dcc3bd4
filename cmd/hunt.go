package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/hunt"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
)

// huntCmd represents the hunt command
var huntCmd = &cobra.Command{
	Use:   "hunt <email>",
	Short: "Hunt a single email address",
	Long:  "Resolves the email to its accounts and prints everything found as indented JSON.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rawSources, _ := cmd.Flags().GetString("sources")

		sources, err := platforms.ParseSources(rawSources)
		if err != nil {
			utils.Log.Error(err)
			os.Exit(exitCode(hunt.KindInvalidInput))
		}

		hunter, err := hunt.NewHunter(hunterConfig(viper.GetViper()))
		if err != nil {
			utils.Log.Error(err)
			os.Exit(exitCode(hunt.KindOf(err)))
		}

		res, err := hunter.Hunt(cmd.Context(), hunt.Query{Email: args[0], Sources: sources})
		if err != nil {
			utils.Log.Errorf("%s: %v", hunt.KindOf(err), err)
			os.Exit(exitCode(hunt.KindOf(err)))
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			utils.Log.Fatal(err)
		}
		fmt.Println(string(out))
	},
}

func exitCode(kind hunt.Kind) int {
	switch kind {
	case hunt.KindInvalidInput:
		return 2
	case hunt.KindConfiguration:
		return 3
	case hunt.KindUpstream:
		return 4
	default:
		return 1
	}
}

func init() {
	rootCmd.AddCommand(huntCmd)
	huntCmd.Flags().StringP("sources", "s", "", "Comma-separated sources to query (maps, youtube, calendar). Default: all")
}
