package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vearutop/texblend"
	"github.com/vearutop/texblend/internal/imageio"
)

// parseLayerSpec parses "path[:weight[:mode[:on|off]]]".
//
// Fields are taken from the right so that paths containing colons keep working,
// e.g. "C:\maps\a.png:0.5" is a path with weight 0.5.
// An unknown mode following a weight falls back to normal.
func parseLayerSpec(s string) (imageio.LayerSpec, error) {
	spec := imageio.LayerSpec{Weight: 1, Mode: texblend.Normal, Enabled: true}
	parts := strings.Split(s, ":")

	if n := len(parts); n > 1 {
		switch strings.ToLower(parts[n-1]) {
		case "on":
			parts = parts[:n-1]
		case "off":
			spec.Enabled = false
			parts = parts[:n-1]
		}
	}
	if n := len(parts); n > 1 {
		if m, ok := texblend.LookupBlendMode(parts[n-1]); ok {
			spec.Mode = m
			parts = parts[:n-1]
		} else if n > 2 && isNumber(parts[n-2]) && !isNumber(parts[n-1]) {
			// A field after the weight is a mode, unknown modes blend as normal.
			texblend.Logger().Warn("unknown blend mode, using normal", "layer", s, "mode", parts[n-1])
			parts = parts[:n-1]
		}
	}
	if n := len(parts); n > 1 {
		if w, err := strconv.ParseFloat(parts[n-1], 64); err == nil {
			spec.Weight = w
			parts = parts[:n-1]
		}
	}

	spec.Path = strings.Join(parts, ":")
	if spec.Path == "" {
		return spec, fmt.Errorf("layer %q: empty path", s)
	}
	return spec, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseLayerSpecs(args []string) ([]imageio.LayerSpec, error) {
	specs := make([]imageio.LayerSpec, 0, len(args))
	for _, a := range args {
		s, err := parseLayerSpec(a)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// parseTaskSpec parses "name=layer,layer,...".
func parseTaskSpec(s string) (string, []imageio.LayerSpec, error) {
	name, layers, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(layers) == "" {
		return "", nil, fmt.Errorf("task %q: expected name=layer[,layer...]", s)
	}
	specs, err := parseLayerSpecs(strings.Split(layers, ","))
	if err != nil {
		return "", nil, fmt.Errorf("task %q: %w", name, err)
	}
	return strings.TrimSpace(name), specs, nil
}
