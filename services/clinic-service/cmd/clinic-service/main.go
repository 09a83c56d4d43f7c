package main

import (
	"os"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/clinicbook/libs/runtime"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinic-service",
		Short:        "Clinic appointment booking service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(healthcheckCmd())

	ctx, stop := runtime.SignalContext()
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
