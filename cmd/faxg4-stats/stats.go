// Copyright 2016 Michael Stapelberg and contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Program faxg4-stats prints which Group 4 coding modes the images it is
// given are compressed with, and optionally charts them.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/renameio"
	"github.com/stapelberg/faxg4/internal/g4"
	"github.com/stapelberg/faxg4/internal/page"
	"github.com/wcharczuk/go-chart/v2"
)

var chartPath = flag.String("chart",
	"",
	"If non-empty, path at which to store an SVG bar chart of the coding modes of all images")

// verticalLabels are indexed like g4.Stats.Vertical.
var verticalLabels = [7]string{"VR3", "VR2", "VR1", "V0", "VL1", "VL2", "VL3"}

func bars(s *g4.Stats) []chart.Value {
	values := []chart.Value{
		{Label: "P", Value: float64(s.Pass)},
		{Label: "H", Value: float64(s.Horizontal)},
	}
	for i, n := range s.Vertical {
		values = append(values, chart.Value{Label: verticalLabels[i], Value: float64(n)})
	}
	return values
}

func printStats(w io.Writer, name string, s *g4.Stats) {
	fmt.Fprintf(w, "%s: %d rows, %d bytes (%.2f bytes/row)\n", name, s.Rows, s.Bytes, float64(s.Bytes)/float64(s.Rows))
	fmt.Fprintf(w, "  pass %d, horizontal %d (%d make-up, %d terminating codes), vertical %d\n",
		s.Pass, s.Horizontal, s.MakeUp, s.Terminating, s.VerticalTotal())
	for i, n := range s.Vertical {
		fmt.Fprintf(w, "    %-3s %d\n", verticalLabels[i], n)
	}
}

func encode(path string, stats *g4.Stats) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r, err := page.FromBytes(b).Raster()
	if err != nil {
		return err
	}
	enc := g4.NewEncoder(io.Discard, &g4.Options{Stats: stats})
	_, err = enc.Encode(r.Src, r.Offset, r.Width, r.Height)
	return err
}

func writeChart(path string, s *g4.Stats) error {
	graph := chart.BarChart{
		Title: "Group 4 coding modes",
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Height:   512,
		BarWidth: 60,
		Bars:     bars(s),
	}
	o, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer o.Cleanup()
	if err := graph.Render(chart.SVG, o); err != nil {
		return err
	}
	return o.CloseAtomicallyReplace()
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Syntax: faxg4-stats [-chart=modes.svg] <image>...")
	}

	var total g4.Stats
	for _, path := range flag.Args() {
		var stats g4.Stats
		if err := encode(path, &stats); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		printStats(os.Stdout, path, &stats)
		total.Add(&stats)
	}
	if flag.NArg() > 1 {
		printStats(os.Stdout, "total", &total)
	}

	if *chartPath != "" {
		if err := writeChart(*chartPath, &total); err != nil {
			log.Fatal(err)
		}
	}
}
