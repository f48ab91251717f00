// flatshade - Flat-shaded software renderer
// Render polygon scenes and glTF models to PNG, or view them in the terminal.
//
// Usage:
//
//	flatshade render scene.txt -o out.png --fit
//	flatshade view model.glb
//	flatshade info scene.txt
package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := newRootCmd()
	if err := fang.Execute(context.Background(), root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	logLevel string
	logger   *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "flatshade",
		Short: "Flat-shaded software renderer for polygon scenes",
		Long: "flatshade renders triangle scenes with flat shading, back-face culling\n" +
			"and a depth buffer. Scenes are read from flatshade text files or glTF models.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newRenderCmd(a),
		newViewCmd(a),
		newInfoCmd(a),
	)
	return root
}
