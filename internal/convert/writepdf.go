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

package convert

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stapelberg/faxg4/internal/pdf"
)

func writePDF(w io.Writer, pages []Page, opts Options) error {
	var kids []pdf.Object
	var cnt int
	for _, p := range pages {
		if p.G4 == nil {
			continue
		}

		width, height := pdf.A4Width, pdf.A4Height
		if opts.DPI > 0 {
			width, height = pdf.MediaBox(p.Bounds, opts.DPI)
		}
		scanName := fmt.Sprintf("scan%d", cnt)
		kids = append(kids, &pdf.Page{
			Common: pdf.Common{ObjectName: fmt.Sprintf("page%d", cnt)},
			Width:  width,
			Height: height,
			Resources: []pdf.Object{
				&pdf.Image{
					Common: pdf.Common{
						ObjectName: scanName,
						Stream:     p.G4,
					},
					Bounds:   p.Bounds,
					BlackIs1: p.BlackIs1,
				},
			},
			Parent: "pages",
			Contents: []pdf.Object{
				&pdf.Common{
					ObjectName: fmt.Sprintf("content%d", cnt),
					Stream:     pdf.DrawImage(scanName, width, height),
				},
			},
		})
		cnt++
	}

	doc := &pdf.Catalog{
		Common: pdf.Common{ObjectName: "catalog"},
		Pages: &pdf.Pages{
			Common: pdf.Common{ObjectName: "pages"},
			Kids:   kids,
		},
	}
	producer := opts.Producer
	if producer == "" {
		producer = "https://github.com/stapelberg/faxg4"
	}
	info := &pdf.DocumentInfo{
		Common:       pdf.Common{ObjectName: "info"},
		CreationDate: time.Now(),
		Producer:     producer,
		FileID:       uuid.New(),
	}
	pdfEnc := pdf.NewEncoder(w)
	return pdfEnc.Encode(doc, info)
}
