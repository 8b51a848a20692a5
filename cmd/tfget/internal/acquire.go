package internal

import (
	"github.com/spf13/cobra"

	"github.com/cgolink/tfget/internal/acquire"
)

func runAcquire(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	return acquire.Run(cmd.Context(), acquire.TensorFlow(), acquire.Options{
		Config:   cfg,
		Platform: hostPlatform(cfg),
		Logger:   logger,
		Stdout:   cmd.OutOrStdout(),
	})
}
