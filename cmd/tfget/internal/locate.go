package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgolink/tfget/internal/acquire"
	"github.com/cgolink/tfget/internal/bucket"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the URL of the newest prebuilt artifact for this platform",
	Long: `Locate resolves the newest prebuilt nightly artifact matching the
current platform and prints its download URL without fetching it.`,
	Args: cobra.NoArgs,
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	lib := acquire.TensorFlow()
	plat := hostPlatform(cfg)

	locator := &bucket.Locator{Logger: logger}
	url, err := locator.LatestURL(cmd.Context(), acquire.ArtifactName(plat, lib))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
