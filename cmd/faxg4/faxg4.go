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

// Program faxg4 compresses black and white images with CCITT Group 4 (ITU-T
// T.6) fax coding, either into raw .g4 files or into one PDF document.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/stapelberg/faxg4/internal/bitmap"
	"github.com/stapelberg/faxg4/internal/convert"
	"github.com/stapelberg/faxg4/internal/g4"
	"github.com/stapelberg/faxg4/internal/httperr"
	"github.com/stapelberg/faxg4/internal/page"
	"golang.org/x/net/trace"
)

var (
	format = flag.String("format",
		"g4",
		"Output format: g4 writes one raw T.6 stream per input file (see -output_dir), pdf writes all inputs as pages of one PDF document (see -output)")

	output = flag.String("output",
		"out.pdf",
		"Path of the PDF document to write with -format=pdf")

	outputDir = flag.String("output_dir",
		"",
		"Directory in which to place .g4 files with -format=g4. If empty, each .g4 file is placed next to its input file.")

	rawWidth = flag.Int("raw_width",
		0,
		"If non-zero, input files are not images, but raw pixel arrays of this width (in pixels): rows padded to 4 bytes, most significant bit first, bottom row first, 1 bits white")

	rawHeight = flag.Int("raw_height",
		0,
		"Height (in pixels) of the raw pixel arrays, see -raw_width")

	rawOffset = flag.Int64("raw_offset",
		0,
		"Offset (in bytes) of the pixel data within raw input files, see -raw_width")

	dpi = flag.Float64("dpi",
		0,
		"Resolution of the input images, determining the PDF page size. If zero, pages are scaled to DIN A4.")

	blankThreshold = flag.Float64("blank_threshold",
		convert.DefaultBlankThreshold,
		"White ratio above which pages are considered blank and left out of the PDF document. Negative values keep all pages.")

	thumb = flag.String("thumb",
		"",
		"If non-empty, path at which to store a PNG thumbnail of the first PDF page")

	httpListenAddr = flag.String("http_listen_address",
		"",
		"[host]:port to serve /convert, /debug/requests and /debug/pprof on. Without input files, faxg4 only serves HTTP requests: POST an image to /convert?format=g4 or /convert?format=pdf.")
)

// writeAtomically creates or replaces path with the output of write.
func writeAtomically(path string, write func(w io.Writer) error) error {
	o, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer o.Cleanup()
	if err := write(o); err != nil {
		return err
	}
	return o.CloseAtomicallyReplace()
}

func g4Path(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".g4"
	if *outputDir != "" {
		return filepath.Join(*outputDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

// encodeFile writes the raw T.6 stream of the image in input to w.
func encodeFile(enc *g4.Encoder, input string) (*page.Raster, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := &page.Raster{
		Src:    f,
		Offset: *rawOffset,
		Width:  *rawWidth,
		Height: *rawHeight,
	}
	if *rawWidth == 0 {
		if h, err := bitmap.DecodeHeader(f); err == nil {
			// Encode straight from the pixel array of the file.
			r.Offset = h.PixelOffset
			r.Width, r.Height = h.Width, h.Height
			r.BlackIs1 = !h.OneIsWhite
		} else {
			b, err := os.ReadFile(input)
			if err != nil {
				return nil, err
			}
			r, err = page.FromBytes(b).Raster()
			if err != nil {
				return nil, err
			}
		}
	}
	if _, err := enc.Encode(r.Src, r.Offset, r.Width, r.Height); err != nil {
		return nil, err
	}
	return r, nil
}

func writeG4(inputs []string) error {
	for _, input := range inputs {
		var (
			stats g4.Stats
			r     *page.Raster
		)
		dest := g4Path(input)
		err := writeAtomically(dest, func(w io.Writer) error {
			var err error
			r, err = encodeFile(g4.NewEncoder(w, &g4.Options{Stats: &stats}), input)
			return err
		})
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		log.Printf("%s: %dx%d pixels, %d bytes → %s", input, r.Width, r.Height, stats.Bytes, dest)
		if r.BlackIs1 {
			log.Printf("%s: 1 bits are black pixels, decode %s with BlackIs1", input, dest)
		}
	}
	return nil
}

func writePDF(inputs []string) error {
	if *rawWidth != 0 {
		return fmt.Errorf("-raw_width is only supported with -format=g4")
	}
	tr := trace.New("faxg4", "convert")
	defer tr.Finish()

	pages := make([]*page.Any, len(inputs))
	for idx, input := range inputs {
		b, err := os.ReadFile(input)
		if err != nil {
			return err
		}
		tr.LazyPrintf("page %d: %s (%d bytes)", idx, input, len(b))
		pages[idx] = page.FromBytes(b)
	}

	result, err := convert.Pages(tr, pages, convert.Options{
		BlankThreshold: *blankThreshold,
		DPI:            *dpi,
	})
	if err != nil {
		return err
	}
	var written int
	for _, p := range result.Pages {
		if p.Blank {
			log.Printf("%s: skipping blank page (%.2f%% white)", inputs[p.Index], 100*p.WhitePct)
			continue
		}
		written++
	}

	if err := writeAtomically(*output, func(w io.Writer) error {
		_, err := w.Write(result.PDF)
		return err
	}); err != nil {
		return err
	}
	log.Printf("wrote %d pages (%d bytes of G4 data) to %s", written, result.Stats.Bytes, *output)

	if *thumb != "" && result.Thumb != nil {
		if err := renameio.WriteFile(*thumb, result.Thumb, 0644); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 && *httpListenAddr == "" {
		log.Fatal("Syntax: faxg4 [flags] <image>...\n       faxg4 -http_listen_address=localhost:7120")
	}

	if *httpListenAddr != "" {
		http.Handle("/convert", httperr.Handle(convertHandler))
		serve := func() error {
			log.Printf("serving /convert and /debug/requests on http://%s", *httpListenAddr)
			return http.ListenAndServe(*httpListenAddr, nil)
		}
		if flag.NArg() == 0 {
			log.Fatal(serve())
		}
		go func() {
			if err := serve(); err != nil {
				log.Print(err)
			}
		}()
	}

	var err error
	switch *format {
	case "g4":
		err = writeG4(flag.Args())
	case "pdf":
		err = writePDF(flag.Args())
	default:
		err = fmt.Errorf("unknown -format=%q, expected g4 or pdf", *format)
	}
	if err != nil {
		log.Fatal(err)
	}
}
