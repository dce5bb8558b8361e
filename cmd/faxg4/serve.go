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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/stapelberg/faxg4/internal/convert"
	"github.com/stapelberg/faxg4/internal/g4"
	"github.com/stapelberg/faxg4/internal/httperr"
	"github.com/stapelberg/faxg4/internal/page"
	"golang.org/x/net/trace"
)

const maxUploadSize = 64 << 20

// convertHandler encodes the image in the request body. The format query
// parameter selects the response: g4 (the default) or pdf.
func convertHandler(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return httperr.Error(http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed, use POST", r.Method))
	}
	tr := trace.New("faxg4", r.URL.Path)
	defer tr.Finish()

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return httperr.Error(http.StatusRequestEntityTooLarge, err)
		}
		return err
	}
	tr.LazyPrintf("read %d byte image", len(b))
	p := page.FromBytes(b)

	switch format := r.URL.Query().Get("format"); format {
	case "", "g4":
		raster, err := p.Raster()
		if err != nil {
			return httperr.Error(http.StatusBadRequest, err)
		}
		var buf bytes.Buffer
		if _, err := g4.Encode(raster.Src, raster.Offset, raster.Width, raster.Height, &buf); err != nil {
			if errors.Is(err, g4.ErrInvalidDimensions) || errors.Is(err, g4.ErrTruncatedInput) {
				return httperr.Error(http.StatusBadRequest, err)
			}
			return err
		}
		tr.LazyPrintf("g4-compressed into %d bytes", buf.Len())
		h := w.Header()
		h.Set("Content-Type", "application/octet-stream")
		h.Set("X-Columns", strconv.Itoa(raster.Width))
		h.Set("X-Rows", strconv.Itoa(raster.Height))
		h.Set("X-Black-Is-1", strconv.FormatBool(raster.BlackIs1))
		_, err = w.Write(buf.Bytes())
		return err

	case "pdf":
		var dpi float64
		if v := r.URL.Query().Get("dpi"); v != "" {
			dpi, err = strconv.ParseFloat(v, 64)
			if err != nil || dpi <= 0 {
				return httperr.Error(http.StatusBadRequest, fmt.Errorf("invalid dpi %q", v))
			}
		}
		result, err := convert.Pages(tr, []*page.Any{p}, convert.Options{
			BlankThreshold: -1, // a single page is never left out
			DPI:            dpi,
		})
		if err != nil {
			return httperr.Error(http.StatusBadRequest, err)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, err = w.Write(result.PDF)
		return err

	default:
		return httperr.Error(http.StatusBadRequest, fmt.Errorf("unknown format %q, expected g4 or pdf", format))
	}
}
