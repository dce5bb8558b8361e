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

package pdf

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMediaBox(t *testing.T) {
	for _, test := range []struct {
		bounds        image.Rectangle
		dpi           float64
		width, height float64
	}{
		{image.Rect(0, 0, 4960, 7016), 600, 595.2, 841.92},
		{image.Rect(0, 0, 1728, 2292), 200, 622.08, 825.12},
		{image.Rect(10, 10, 82, 154), 72, 72, 144},
	} {
		width, height := MediaBox(test.bounds, test.dpi)
		if d := width - test.width; d > 0.001 || d < -0.001 {
			t.Errorf("MediaBox(%v, %v): width = %v, want %v", test.bounds, test.dpi, width, test.width)
		}
		if d := height - test.height; d > 0.001 || d < -0.001 {
			t.Errorf("MediaBox(%v, %v): height = %v, want %v", test.bounds, test.dpi, height, test.height)
		}
	}
}

func encodeObject(t *testing.T, o Object) string {
	t.Helper()
	var buf bytes.Buffer
	if err := o.Encode(&buf, map[string]ObjectID{"pages": 2, "scan0": 4}); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestImageDict(t *testing.T) {
	got := encodeObject(t, &Image{
		Common:   Common{ID: 4, Stream: []byte{0x26, 0xa0}},
		Bounds:   image.Rect(0, 0, 65, 2),
		BlackIs1: true,
	})
	for _, want := range []string{
		"/K -1\n",
		"/BlackIs1 true\n",
		"/Columns 65\n",
		"/Rows 2\n",
		"/Width 65\n",
		"/Height 2\n",
		"/Length 2\n",
		"stream\n\x26\xa0\nendstream",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("image object does not contain %q:\n%s", want, got)
		}
	}
}

func TestPageDefaultSize(t *testing.T) {
	got := encodeObject(t, &Page{
		Common:    Common{ID: 3},
		Resources: []Object{&Image{Common: Common{ObjectName: "scan0"}}},
		Parent:    "pages",
	})
	if want := "/MediaBox [ 0 0 595.28 841.89 ]"; !strings.Contains(got, want) {
		t.Errorf("page object does not contain %q:\n%s", want, got)
	}
}

func testDocument() (*Catalog, *DocumentInfo) {
	doc := &Catalog{
		Common: Common{ObjectName: "catalog"},
		Pages: &Pages{
			Common: Common{ObjectName: "pages"},
		},
	}
	info := &DocumentInfo{
		Common:       Common{ObjectName: "info"},
		CreationDate: time.Unix(0, 0).UTC(),
	}
	return doc, info
}

func TestFileID(t *testing.T) {
	doc, info := testDocument()
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(doc, info); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "/ID") {
		t.Errorf("trailer unexpectedly contains a file identifier")
	}

	doc, info = testDocument()
	info.FileID = uuid.New()
	buf.Reset()
	if err := NewEncoder(&buf).Encode(doc, info); err != nil {
		t.Fatal(err)
	}
	id := strings.ReplaceAll(info.FileID.String(), "-", "")
	if want := "/ID [ <" + id + "> <" + id + "> ]"; !strings.Contains(buf.String(), want) {
		t.Errorf("trailer does not contain %q:\n%s", want, buf.String())
	}
}

type failingWriter struct{}

var errFull = errors.New("disk full")

func (failingWriter) Write(p []byte) (int, error) { return 0, errFull }

func TestEncodeError(t *testing.T) {
	doc, info := testDocument()
	if err := NewEncoder(failingWriter{}).Encode(doc, info); !errors.Is(err, errFull) {
		t.Errorf("Encode: got %v, want %v", err, errFull)
	}
}
