// Command session-plot renders the blendshape traces of a recorded
// session log as an HTML line chart, for inspecting filter behaviour and
// peripheral data without a VMC receiver.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mocap-data/motion.stream/internal/recorder"
)

var (
	logPath  = flag.String("log", "", "Path to a recorded session log (jsonl)")
	outPath  = flag.String("out", "session.html", "Output HTML file")
	channels = flag.String("channels", "", "Comma-separated blendshape channels to plot (default: all seen in the log)")
)

func main() {
	flag.Parse()
	if *logPath == "" {
		log.Fatal("-log is required")
	}

	entries, err := recorder.ReadLog(*logPath)
	if err != nil {
		log.Fatalf("failed to load log: %v", err)
	}

	selected := selectChannels(entries, *channels)
	if len(selected) == 0 {
		log.Fatal("no blendshape channels to plot")
	}

	base := entries[0].Timestamp
	xAxis := make([]string, len(entries))
	series := make(map[string][]opts.LineData, len(selected))
	for i, entry := range entries {
		xAxis[i] = fmt.Sprintf("%.3f", entry.Timestamp-base)
		for _, name := range selected {
			series[name] = append(series[name], opts.LineData{Value: entry.MotionData.Blendshapes[name]})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Session blendshape traces",
			Subtitle: fmt.Sprintf("%s — %d frames", *logPath, len(entries)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "seconds"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value"}),
	)
	line.SetXAxis(xAxis)
	for _, name := range selected {
		line.AddSeries(name, series[name])
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s (%d channels, %d frames)", *outPath, len(selected), len(entries))
}

// selectChannels resolves the channel list: an explicit comma-separated
// selection, or every channel observed anywhere in the log.
func selectChannels(entries []recorder.Entry, explicit string) []string {
	if explicit != "" {
		var names []string
		for _, name := range strings.Split(explicit, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		return names
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		for name := range entry.MotionData.Blendshapes {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
