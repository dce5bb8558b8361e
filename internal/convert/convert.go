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

// Package convert turns pages into Group 4 fax images and a PDF document
// showing the non-blank ones.
package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"runtime"

	"github.com/stapelberg/faxg4/internal/g4"
	"github.com/stapelberg/faxg4/internal/page"
	"golang.org/x/net/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultBlankThreshold is the white ratio above which a page counts as
// blank.
const DefaultBlankThreshold = 0.99

// Options configures Pages. The zero value is ready to use.
type Options struct {
	// BlankThreshold is the white ratio above which pages are skipped.
	// Zero means DefaultBlankThreshold, negative values keep all pages.
	BlankThreshold float64

	// Concurrency limits how many pages are encoded at once. Zero means
	// runtime.NumCPU().
	Concurrency int

	// DPI is the resolution of the pages, which determines their PDF page
	// size. Zero means every page is scaled to DIN A4.
	DPI float64

	// Producer is recorded in the PDF document information.
	Producer string
}

// Page is the conversion result of one input page.
type Page struct {
	Index    int
	Bounds   image.Rectangle
	WhitePct float64
	Blank    bool

	// G4 is the T.6 encoded page, nil for blank pages.
	G4       []byte
	BlackIs1 bool
	Stats    g4.Stats
}

// Result is the conversion result of a document.
type Result struct {
	PDF   []byte
	Thumb []byte // PNG of the first non-blank page
	Pages []Page

	// Stats sums the Stats of all pages.
	Stats g4.Stats
}

func (o *Options) blankThreshold() float64 {
	switch {
	case o.BlankThreshold == 0:
		return DefaultBlankThreshold
	case o.BlankThreshold < 0:
		return 2 // never exceeded
	}
	return o.BlankThreshold
}

// convertPage binarizes and encodes one page.
func convertPage(tr trace.Trace, idx int, p *page.Any, blankThreshold float64) (Page, error) {
	result := Page{Index: idx}
	bin, whitePct, err := p.Binarized()
	if err != nil {
		return result, fmt.Errorf("page %d: %w", idx, err)
	}
	result.Bounds = bin.Bounds()
	result.WhitePct = whitePct
	result.Blank = whitePct > blankThreshold
	tr.LazyPrintf("white percentage of page %d is %f, blank = %v", idx, whitePct, result.Blank)
	if result.Blank {
		return result, nil
	}

	r, err := p.Raster()
	if err != nil {
		return result, fmt.Errorf("page %d: %w", idx, err)
	}
	var buf bytes.Buffer
	enc := g4.NewEncoder(&buf, &g4.Options{Stats: &result.Stats})
	if _, err := enc.Encode(r.Src, r.Offset, r.Width, r.Height); err != nil {
		return result, fmt.Errorf("page %d: %w", idx, err)
	}
	result.G4 = buf.Bytes()
	result.BlackIs1 = r.BlackIs1
	tr.LazyPrintf("page %d g4-compressed into %d bytes", idx, buf.Len())
	return result, nil
}

// Pages binarizes and encodes pages, skipping blank ones, and writes the
// encoded pages into a PDF document.
func Pages(tr trace.Trace, pages []*page.Any, opts Options) (*Result, error) {
	blankThreshold := opts.blankThreshold()
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	result := &Result{
		Pages: make([]Page, len(pages)),
	}
	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for idx, p := range pages {
		idx, p := idx, p // copy
		eg.Go(func() error {
			var err error
			result.Pages[idx], err = convertPage(tr, idx, p, blankThreshold)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		tr.SetError()
		return nil, err
	}

	var first *image.Gray
	for idx, p := range result.Pages {
		result.Stats.Add(&p.Stats)
		if first == nil && !p.Blank {
			// Binarized is cached and returns immediately.
			var err error
			first, _, err = pages[idx].Binarized()
			if err != nil {
				return nil, err
			}
		}
	}

	// create thumbnail: PNG-encode the first page
	if first != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, first); err != nil {
			return nil, err
		}
		result.Thumb = buf.Bytes()
	}

	var buf bytes.Buffer
	if err := writePDF(&buf, result.Pages, opts); err != nil {
		return nil, err
	}
	result.PDF = buf.Bytes()
	tr.LazyPrintf("wrote %d byte PDF", buf.Len())

	return result, nil
}
