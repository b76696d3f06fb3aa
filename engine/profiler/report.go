package profiler

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Frame-time thresholds for report coloring, in seconds.
const (
	reportWarn = 0.002
	reportHot  = 0.008
)

// WriteReport renders the averaged GPU time of every marker except Begin, followed by
// the total, as a styled table. Colors degrade to plain text on writers that are not
// terminals.
//
// Parameters:
//   - w: the destination writer
//   - samples: the samples to report, usually GPUProfiler.Samples()
//   - opts: termenv output options, such as termenv.WithProfile
//
// Returns:
//   - error: the first write error
func WriteReport(w io.Writer, samples []Sample, opts ...termenv.OutputOption) error {
	out := termenv.NewOutput(w, opts...)

	if _, err := fmt.Fprintln(out, out.String("GPU frame profile").Bold()); err != nil {
		return err
	}

	var total float64
	for _, s := range samples {
		if s.Name == BeginMarker {
			continue
		}
		total += s.Average

		line := fmt.Sprintf("  %-28s %8.3f ms", s.Name, s.Average*1000)
		style := out.String(line)
		switch {
		case s.Average >= reportHot:
			style = style.Foreground(out.Color("1"))
		case s.Average >= reportWarn:
			style = style.Foreground(out.Color("3"))
		default:
			style = style.Foreground(out.Color("2"))
		}
		if _, err := fmt.Fprintln(out, style); err != nil {
			return err
		}
	}

	footer := fmt.Sprintf("  %-28s %8.3f ms", "GPU frame time", total*1000)
	_, err := fmt.Fprintln(out, out.String(footer).Bold())
	return err
}
