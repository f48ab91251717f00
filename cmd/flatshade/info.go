package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taigrr/flatshade/pkg/render"
	"github.com/taigrr/flatshade/pkg/scene"
)

func newInfoCmd(a *app) *cobra.Command {
	var sf *sceneFlags
	cmd := &cobra.Command{
		Use:   "info <scene>",
		Short: "Print polygon count, bounds and lighting of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := sf.load(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("scene loaded", "path", args[0])
			return writeInfo(cmd.OutOrStdout(), args[0], sc)
		},
	}
	sf = addSceneFlags(cmd)
	return cmd
}

func writeInfo(w io.Writer, path string, sc scene.Scene) error {
	_, culled := sc.Cull()

	lines := []string{
		fmt.Sprintf("file:        %s", path),
		fmt.Sprintf("polygons:    %d (%d back-facing unrotated)", sc.Len(), culled),
	}
	if b, ok := scene.BoundsOf(sc); ok {
		size := b.Size()
		lines = append(lines,
			fmt.Sprintf("bounds:      (%g, %g, %g) to (%g, %g, %g)", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z),
			fmt.Sprintf("size:        %g x %g x %g", size.X, size.Y, size.Z),
			fmt.Sprintf("fit scale:   %g at %dx%d", scene.FitScale(b, defaultSize, defaultSize), defaultSize, defaultSize),
		)
	}
	light, lc, amb := sc.Light(), sc.LightColor(), sc.Ambient()
	lines = append(lines,
		fmt.Sprintf("light:       (%g, %g, %g)", light.X, light.Y, light.Z),
		fmt.Sprintf("light color: %d,%d,%d", lc.R, lc.G, lc.B),
		fmt.Sprintf("ambient:     %d,%d,%d", amb.R, amb.G, amb.B),
	)
	if err := sc.Validate(); err != nil {
		lines = append(lines, fmt.Sprintf("invalid:     %v", err))
	} else if _, err := sc.Light().Unit(); err != nil {
		lines = append(lines, fmt.Sprintf("invalid:     %v", render.ErrDegenerateLight))
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// defaultSize is the viewport edge used by render when no size is given.
const defaultSize = 400
