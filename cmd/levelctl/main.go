// levelctl inspects and renders level files from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pizza-rush/internal/config"
	"pizza-rush/internal/level"
	"pizza-rush/internal/render"
	"pizza-rush/internal/world"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "levelctl",
		Short: "Inspect, validate, and render hoverboard city levels",
	}

	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [level.json]",
		Short: "Print a summary of a level file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			l, err := level.LoadFile(args[0])
			if err != nil {
				return err
			}
			c := world.FromLevel(l, 1)
			fmt.Printf("Name:    %s\n", l.Name)
			fmt.Printf("Version: %d\n", l.Version)
			fmt.Printf("Spawn:   (%.1f, %.1f, %.1f)\n", l.Spawn[0], l.Spawn[1], l.Spawn[2])
			fmt.Printf("Content: %s\n", c.Describe())
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [level.json]",
		Short: "Check a level file for format and structural errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if _, err := level.LoadFile(args[0]); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	var out string
	var size int
	var extent float64

	cmd := &cobra.Command{
		Use:   "render [level.json]",
		Short: "Render a level's minimap to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			l, err := level.LoadFile(args[0])
			if err != nil {
				return err
			}
			c := world.FromLevel(l, 1)
			png, err := render.NewMinimap(size, extent).Render(c, nil, 0, 0)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, png, 0644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", out, len(png))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "minimap.png", "output PNG path")
	cmd.Flags().IntVar(&size, "size", 1024, "image size in pixels")
	cmd.Flags().Float64Var(&extent, "extent", 0, "world half-extent to show (0 = default)")
	return cmd
}

func generateCmd() *cobra.Command {
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a procedural city and save it as a level file",
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := config.Load()
			c := world.Generate(cfg.World, cfg.Limits, seed)
			l := c.ToLevel(fmt.Sprintf("generated-%d", seed))
			if err := level.SaveFile(l, out); err != nil {
				return err
			}
			fmt.Printf("Generated %s: %s\n", out, c.Describe())
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 1, "generation seed")
	cmd.Flags().StringVarP(&out, "out", "o", "city.json", "output level path")
	return cmd
}
