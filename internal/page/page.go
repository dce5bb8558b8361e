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

// Package page implements input pages: encoded images (PNG, JPEG, GIF or
// BMP) or in-memory images, which are binarized when first needed.
package page

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/stapelberg/faxg4/internal/bitmap"
)

// Threshold is the gray value above which a pixel is binarized to white.
const Threshold = 127

// Any is a page of any supported format. Its methods must not be called
// concurrently.
type Any struct {
	encoded []byte
	img     image.Image

	binarized *image.Gray
	whitePct  float64
}

// Raster is a pixel source for g4.Encode: Height rows of Width pixels,
// starting at Offset in Src, in the layout of a 1-bit BMP pixel array.
type Raster struct {
	Src           io.ReadSeeker
	Offset        int64
	Width, Height int

	// BlackIs1 is set when 1 bits in Src are black pixels (the encoder
	// codes 1 bits as white).
	BlackIs1 bool
}

// Bytes returns the encoded image, or nil for pages created from an
// image.
func (p *Any) Bytes() []byte {
	return p.encoded
}

// Binarized returns the page as a black (0x00) and white (0xff) image,
// and the ratio of white pixels.
func (p *Any) Binarized() (*image.Gray, float64, error) {
	if p.binarized != nil {
		return p.binarized, p.whitePct, nil
	}

	img := p.img
	if img == nil {
		var err error
		img, err = p.decode()
		if err != nil {
			return nil, 0, err
		}
	}

	p.binarized, p.whitePct = binarize(img)
	return p.binarized, p.whitePct, nil
}

func (p *Any) decode() (image.Image, error) {
	// image/bmp cannot decode 1-bit images, which are the most common
	// kind of BMP for black and white pages.
	m, _, err := bitmap.Decode(bytes.NewReader(p.encoded))
	if err == nil {
		return m, nil
	}
	img, format, err := image.Decode(bytes.NewReader(p.encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding page: empty %s image", format)
	}
	return img, nil
}

// Raster returns the pixel source to encode the page from. 1-bit BMP
// pages are encoded straight from their pixel array; all other pages are
// binarized first.
func (p *Any) Raster() (*Raster, error) {
	if p.encoded != nil {
		r := bytes.NewReader(p.encoded)
		if h, err := bitmap.DecodeHeader(r); err == nil {
			return &Raster{
				Src:      r,
				Offset:   h.PixelOffset,
				Width:    h.Width,
				Height:   h.Height,
				BlackIs1: !h.OneIsWhite,
			}, nil
		}
		// Not a 1-bit BMP: binarize.
	}
	bin, _, err := p.Binarized()
	if err != nil {
		return nil, err
	}
	bounds := bin.Bounds()
	return &Raster{
		Src:    bytes.NewReader(bitmap.Pack(bin)),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// FromBytes returns a page for an encoded image. Decoding is deferred
// until the page is binarized.
func FromBytes(b []byte) *Any {
	return &Any{encoded: b}
}

// FromImage returns a page for an in-memory image.
func FromImage(img image.Image) *Any {
	return &Any{img: img}
}

// Binarized returns a page which was already binarized, e.g. by a
// scanner.
func Binarized(encoded []byte, binarized *image.Gray, whitePct float64) *Any {
	return &Any{
		encoded:   encoded,
		binarized: binarized,
		whitePct:  whitePct,
	}
}

// binarize turns image into a black/white image.
func binarize(img image.Image) (*image.Gray, float64) {
	bounds := img.Bounds()
	out := image.NewGray(bounds)

	var white int
	if gray, ok := img.(*image.Gray); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			src := gray.Pix[gray.PixOffset(bounds.Min.X, y):][:bounds.Dx()]
			dst := out.Pix[out.PixOffset(bounds.Min.X, y):][:bounds.Dx()]
			for x, v := range src {
				if v > Threshold {
					dst[x] = 0xff
					white++
				}
			}
		}
	} else {
		// Y outer, X inner: this loop arrangement is faster.
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				a := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
				if a > Threshold {
					out.SetGray(x, y, color.Gray{0xff}) // white
					white++
				}
			}
		}
	}
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return out, 0
	}
	return out, float64(white) / float64(total)
}
