package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vearutop/texblend"
	"github.com/vearutop/texblend/internal/imageio"
)

var (
	errTasksFailed    = errors.New("some tasks failed")
	errOutputConflict = errors.New("tasks share an output file")
)

func newBatchCommand(gf *globalFlags) *cobra.Command {
	var (
		f       blendFlags
		tasks   []string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch --task name=layer[,layer...] [--task ...]",
		Short: "Blend several tasks concurrently",
		Long: `Blend several independent tasks concurrently.

Every --task is name=layer[,layer...] with layers in the same form as for blend.
Outputs are written to <out-dir>/<name>.<format>. Failed tasks are reported and
the command exits with an error after all tasks have run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, gf)
			if err != nil {
				return err
			}
			if err := f.apply(cfg); err != nil {
				return err
			}
			if workers == 0 {
				workers = cfg.Workers
			}
			if len(tasks) == 0 {
				return errors.New("at least one --task is required")
			}

			format, err := cfg.Format()
			if err != nil {
				return err
			}
			resampler, err := cfg.NewResampler()
			if err != nil {
				return err
			}

			logger := texblend.Logger()
			loaded := make([]*texblend.Task, 0, len(tasks))
			outputs := make(map[string]string, len(tasks))
			for _, ts := range tasks {
				name, specs, err := parseTaskSpec(ts)
				if err != nil {
					return err
				}
				// Case-insensitive file systems map Rock.png and rock.png to one file.
				out := strings.ToLower(imageio.OutputName(name, format.Ext()))
				if prev, ok := outputs[out]; ok {
					return fmt.Errorf("%w: %s and %s", errOutputConflict, taskLabel(prev), taskLabel(name))
				}
				outputs[out] = name
				task, decodeErrs := imageio.LoadTask(name, specs)
				for _, err := range decodeErrs {
					logger.Warn("layer not decoded", "task", name, "error", err)
				}
				loaded = append(loaded, task)
			}

			stderr := cmd.ErrOrStderr()
			results := texblend.BlendAll(cmd.Context(), loaded, workers, func(o *texblend.Options) {
				o.Resampler = resampler
				o.OnSkip = func(w texblend.LayerWarning) {
					_, _ = fmt.Fprintf(stderr, "Warning: %s\n", w)
				}
			})

			failed := 0
			for _, r := range results {
				if r.Err == nil {
					out := filepath.Join(cfg.OutputDir, imageio.OutputName(r.Task.Name, format.Ext()))
					r.Err = imageio.Save(out, r.Result.Image, cfg.JPEGQuality)
					if r.Err == nil {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
						continue
					}
				}
				failed++
				_, _ = fmt.Fprintf(stderr, "Error: task %s: %v\n", taskLabel(r.Task.Name), r.Err)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errTasksFailed, failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&tasks, "task", "t", nil, "task as name=layer[,layer...], repeatable")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent tasks (default from config, 0 uses all CPUs)")
	f.register(cmd)

	return cmd
}
