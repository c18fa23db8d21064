package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	latest "github.com/tcnksm/go-latest"
)

// Version is set via ldflags at build time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of repoflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repoflow %s\n", Version)

		if check, _ := cmd.Flags().GetBool("check"); check {
			checkUpdate(Version)
		}
	},
}

// checkUpdate compares the running version against the newest GitHub tag.
// Network failures stay silent; an outdated build prints a hint.
func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "repoflow",
		Repository: "repoflow",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return
	}

	if res.Outdated {
		fmt.Printf("A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("Download it from https://github.com/repoflow/repoflow/releases")
	} else {
		fmt.Printf("You are using the latest version: %s\n", currentVer)
	}
}

func init() {
	versionCmd.Flags().Bool("check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
