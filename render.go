package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/stream"
	"github.com/matt-g-everett/iconanim/svg"
	"github.com/matt-g-everett/iconanim/theme"
)

type renderOptions struct {
	Output      string
	Duration    float64
	Iterations  int
	Direction   string
	Easing      string
	Theme       []string
	InlineTheme bool
}

func newRenderCmd(root *rootFlags) *cobra.Command {
	opts := renderOptions{}
	defaults := stream.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "render <icon.svg>",
		Short: "Write a self-animating, themed copy of an icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lg, err := logger.New(logger.Options{Level: root.logLevel, HumanReadable: root.human})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Output != "" && opts.Output != "-" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return runRender(args[0], opts, out, lg)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().Float64Var(&opts.Duration, "duration", defaults.Duration, "Iteration length in seconds")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", defaults.Iterations, "Iteration count, -1 repeats forever")
	cmd.Flags().StringVar(&opts.Direction, "direction", string(defaults.Direction), "normal, reverse, alternate or alternate-reverse")
	cmd.Flags().StringVar(&opts.Easing, "easing", defaults.Easing, "Easing between keyframes")
	cmd.Flags().StringSliceVar(&opts.Theme, "theme", nil, "Theme colour as name=#hex, repeatable")
	cmd.Flags().BoolVar(&opts.InlineTheme, "inline-theme", false, "Replace theme variables with their colours")
	return cmd
}

func parseTheme(pairs []string) (theme.Palette, error) {
	colors := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("theme colour %q: want name=#hex", pair)
		}
		colors[name] = value
	}
	return theme.NewPalette(colors)
}

func runRender(path string, opts renderOptions, out io.Writer, lg *logger.Logger) error {
	direction, err := stream.ParseDirection(opts.Direction)
	if err != nil {
		return err
	}
	timing := stream.Options{
		Duration:   opts.Duration,
		Iterations: opts.Iterations,
		Direction:  direction,
		Easing:     opts.Easing,
	}
	if err := timing.Validate(); err != nil {
		return err
	}
	palette, err := parseTheme(opts.Theme)
	if err != nil {
		return err
	}

	g, err := svg.ReadFile(path)
	if err != nil {
		return err
	}
	bound := theme.Bind(g)
	tracks := stream.Decode(g, lg)

	var css strings.Builder
	if opts.InlineTheme {
		palette.Inline(g)
	} else if len(palette) > 0 {
		css.WriteString(palette.CSS())
	}
	css.WriteString(stream.KeyframesCSS(tracks, timing))
	if css.Len() > 0 {
		style := svg.NewElement("style")
		style.AppendChild(svg.NewText(css.String()))
		g.Root().PrependChild(style)
	}

	lg.WithFields(map[string]any{"colors": bound, "tracks": len(tracks), "path": path}).Debug("rendered")
	_, err = g.WriteTo(out)
	return err
}
