package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/prfstim/prfstim/pkg/render/regiongraph"
	"github.com/prfstim/prfstim/pkg/render/sink"
	"github.com/prfstim/prfstim/pkg/stim"
)

// Render encodes f in every requested format.
func Render(ctx context.Context, f *stim.Frame, opts Options) (map[string][]byte, error) {
	s := opts.Settings
	screen := s.Screen.Size()
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatPNG:
			r := sink.NewRaster(screen, sink.WithElementSize(s.Stimuli.ElementSize))
			if err = sink.DrawFrame(r, f); err == nil {
				data = r.PNG()
			}
			_ = r.Close()
		case FormatJSON:
			var buf bytes.Buffer
			err = sink.DrawFrame(sink.NewJSON(&buf), f)
			data = buf.Bytes()
		case FormatPlot:
			p := sink.NewPlot(screen, fmt.Sprintf("block %d trial %d", f.Block, f.Trial))
			if err = sink.DrawFrame(p, f); err == nil {
				data = p.PNG()
			}
		case FormatDOT:
			data = []byte(regiongraph.ToDOT(f))
		case FormatSVG:
			data, err = regiongraph.RenderSVG(ctx, regiongraph.ToDOT(f))
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatPlot:
		return "plot.png"
	case FormatJSON:
		return "json"
	default:
		return format
	}
}
