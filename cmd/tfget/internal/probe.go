package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgolink/tfget/internal/acquire"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report whether the library is already installed on this system",
	Long: `Probe runs the system-level detection (pkg-config query, or an
executable search path scan on windows) and prints the resulting
linker directives when the library is found. Exits non-zero when the
probe finds nothing.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	lib := acquire.TensorFlow()

	d, ok := acquire.Probe(cmd.Context(), logger, hostPlatform(cfg), lib)
	if !ok {
		return fmt.Errorf("%s not found on this system", lib.Name)
	}
	return d.Emit(cmd.OutOrStdout())
}
