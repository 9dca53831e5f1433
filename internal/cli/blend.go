package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vearutop/texblend"
	"github.com/vearutop/texblend/internal/config"
	"github.com/vearutop/texblend/internal/imageio"
)

type blendFlags struct {
	name          string
	out           string
	outDir        string
	format        string
	resampler     string
	interpolation string
	quality       int
}

func (f *blendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "d", "", "output directory (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: png, jpg, tif, bmp")
	cmd.Flags().StringVar(&f.resampler, "resampler", "", "resampler backend: kernel, nfnt, xdraw")
	cmd.Flags().StringVar(&f.interpolation, "interp", "", "interpolation: nearest, bilinear, bicubic, mitchell, lanczos2, lanczos3")
	cmd.Flags().IntVarP(&f.quality, "quality", "q", 0, "JPEG quality 1..100")
}

func (f *blendFlags) apply(cfg *config.Config) error {
	config.Merge(cfg, &config.Config{
		Resampler:     f.resampler,
		Interpolation: f.interpolation,
		JPEGQuality:   f.quality,
		OutputDir:     f.outDir,
		OutputFormat:  f.format,
	})
	return cfg.Validate()
}

func newBlendCommand(gf *globalFlags) *cobra.Command {
	var f blendFlags

	cmd := &cobra.Command{
		Use:   "blend [flags] layer...",
		Short: "Blend layers into one image",
		Long: `Blend layers into one image.

Each layer is given as path[:weight[:mode[:on|off]]], for example
  texblend blend -n rock base.png:1 detail.png:0.5:overlay scratches.png:0.2:multiply:off

The output is written to --out, or to <out-dir>/<name>.<format>.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, gf)
			if err != nil {
				return err
			}
			if err := f.apply(cfg); err != nil {
				return err
			}

			specs, err := parseLayerSpecs(args)
			if err != nil {
				return err
			}

			out := f.out
			if out == "" {
				format, err := cfg.Format()
				if err != nil {
					return err
				}
				out = filepath.Join(cfg.OutputDir, imageio.OutputName(f.name, format.Ext()))
			}

			path, err := runTask(cfg, f.name, specs, out)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVarP(&f.name, "name", "n", "", "task name, used for the output file name")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file path, overrides --out-dir and --format")
	f.register(cmd)

	return cmd
}

// runTask decodes, blends and saves one task, returning the output path.
func runTask(cfg *config.Config, name string, specs []imageio.LayerSpec, out string) (string, error) {
	logger := texblend.Logger().With("task", name)

	if len(specs) < 2 {
		logger.Warn("fewer than two layers, the output repeats the input")
	}

	task, decodeErrs := imageio.LoadTask(name, specs)
	for _, err := range decodeErrs {
		logger.Warn("layer not decoded", "error", err)
	}

	resampler, err := cfg.NewResampler()
	if err != nil {
		return "", err
	}

	res, err := texblend.Blend(task, func(o *texblend.Options) {
		o.Resampler = resampler
	})
	if err != nil {
		return "", fmt.Errorf("blend %s: %w", taskLabel(name), err)
	}

	if err := imageio.Save(out, res.Image, cfg.JPEGQuality); err != nil {
		return "", err
	}
	logger.Info("blended", "output", out, "layers", res.Applied, "skipped", len(res.Skipped),
		"total_weight", res.TotalWeight)

	return out, nil
}

func taskLabel(name string) string {
	if name == "" {
		return imageio.DefaultOutputName
	}
	return name
}
