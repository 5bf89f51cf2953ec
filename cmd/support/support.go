package support

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/audiofeed/internal/conf"
	"github.com/tphakala/audiofeed/internal/diagnostics"
)

// Command creates the support command, which collects a diagnostics bundle
// for troubleshooting.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "support",
		Short: "Collect system diagnostics for troubleshooting",
		Long: `Gather system information, service logs and a masked copy of the
configuration into a compressed archive that can be attached to a bug report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(settings)
		},
	}

	return cmd
}

// runCollect gathers the diagnostics archive and reports where it was written.
func runCollect(settings *conf.Settings) error {
	fmt.Println("Collecting support data...")

	archive, err := diagnostics.CollectDiagnostics()
	if err != nil {
		return fmt.Errorf("error collecting diagnostics: %w", err)
	}

	fmt.Printf("Diagnostics collected to: %s\n", archive)
	if settings.Debug {
		fmt.Println("Review the archive before sharing, sensitive values are masked but logs are included as-is.")
	}

	return nil
}
