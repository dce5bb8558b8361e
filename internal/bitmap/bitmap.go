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

// Package bitmap reads and writes uncompressed 1-bit BMP files. Their pixel
// array (bottom-up rows, padded to 4 bytes, most significant bit first) is
// exactly the pixel source layout package g4 encodes from, so a BMP file
// can be encoded in place, without decoding it into an image first.
package bitmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/stapelberg/faxg4/internal/g4"
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40 // BITMAPINFOHEADER; later versions are longer
	paletteLen    = 2 * 4
)

// ErrUnsupported means that the input is a valid BMP image which this
// package cannot process, e.g. because it has more than 1 bit per pixel.
var ErrUnsupported = errors.New("bitmap: unsupported BMP image")

// Header describes a 1-bit BMP image.
type Header struct {
	Width, Height int

	// PixelOffset is the position of the pixel array within the file.
	PixelOffset int64

	// OneIsWhite is whether palette entry 1 is the brighter color.
	OneIsWhite bool
}

// RowBytes returns the size of one row in the pixel array.
func (h *Header) RowBytes() int { return g4.RowBytes(h.Width) }

// DecodeHeader reads the file header, info header and palette of a 1-bit
// BMP image from r. Top-down images (negative height) are rejected: rows
// must be stored bottom-up.
func DecodeHeader(r io.Reader) (*Header, error) {
	var b [fileHeaderLen + 124]byte
	if _, err := io.ReadFull(r, b[:fileHeaderLen+4]); err != nil {
		return nil, fmt.Errorf("bitmap: reading header: %w", err)
	}
	if string(b[0:2]) != "BM" {
		return nil, errors.New("bitmap: not a BMP file")
	}
	offset := binary.LittleEndian.Uint32(b[10:14])
	infoLen := binary.LittleEndian.Uint32(b[14:18])
	if infoLen < infoHeaderLen || infoLen > 124 {
		return nil, fmt.Errorf("%w: info header of %d bytes", ErrUnsupported, infoLen)
	}
	if _, err := io.ReadFull(r, b[fileHeaderLen+4:fileHeaderLen+infoLen]); err != nil {
		return nil, fmt.Errorf("bitmap: reading info header: %w", err)
	}
	width := int32(binary.LittleEndian.Uint32(b[18:22]))
	height := int32(binary.LittleEndian.Uint32(b[22:26]))
	planes := binary.LittleEndian.Uint16(b[26:28])
	bpp := binary.LittleEndian.Uint16(b[28:30])
	compression := binary.LittleEndian.Uint32(b[30:34])
	colorsUsed := binary.LittleEndian.Uint32(b[46:50])

	if planes != 1 || bpp != 1 || compression != 0 {
		return nil, fmt.Errorf("%w: %d planes, %d bpp, compression %d", ErrUnsupported, planes, bpp, compression)
	}
	if height < 0 {
		return nil, fmt.Errorf("%w: top-down row order", ErrUnsupported)
	}
	if width <= 0 || height == 0 {
		return nil, fmt.Errorf("bitmap: invalid dimensions %dx%d", width, height)
	}
	if colorsUsed == 0 {
		colorsUsed = 2
	}
	if colorsUsed > 2 {
		return nil, fmt.Errorf("%w: %d palette entries for 1 bpp", ErrUnsupported, colorsUsed)
	}
	if offset < fileHeaderLen+infoLen+4*colorsUsed {
		return nil, fmt.Errorf("bitmap: pixel array offset %d overlaps headers", offset)
	}

	var pal [paletteLen]byte
	if _, err := io.ReadFull(r, pal[:4*colorsUsed]); err != nil {
		return nil, fmt.Errorf("bitmap: reading palette: %w", err)
	}
	// Palette entries are stored as blue, green, red, reserved.
	luma := func(e []byte) uint32 {
		return 299*uint32(e[2]) + 587*uint32(e[1]) + 114*uint32(e[0])
	}
	oneIsWhite := luma(pal[4:8]) > luma(pal[0:4])
	if colorsUsed == 1 {
		// Only index 0 is defined; treat index 1 as its opposite.
		oneIsWhite = luma(pal[0:4]) < 128*1000
	}

	return &Header{
		Width:       int(width),
		Height:      int(height),
		PixelOffset: int64(offset),
		OneIsWhite:  oneIsWhite,
	}, nil
}

// Decode reads a 1-bit BMP image from r into a black and white
// *image.Gray (0x00 black, 0xff white, according to the palette).
func Decode(r io.ReadSeeker) (*image.Gray, *Header, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if _, err := r.Seek(h.PixelOffset, io.SeekStart); err != nil {
		return nil, nil, err
	}
	one, zero := color.Gray{0xff}, color.Gray{0x00}
	if !h.OneIsWhite {
		one, zero = zero, one
	}
	m := image.NewGray(image.Rect(0, 0, h.Width, h.Height))
	row := make([]byte, h.RowBytes())
	for y := h.Height - 1; y >= 0; y-- {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, nil, fmt.Errorf("bitmap: reading row %d: %w", y, err)
		}
		for x := 0; x < h.Width; x++ {
			c := zero
			if row[x/8]&(0x80>>uint(x%8)) != 0 {
				c = one
			}
			m.SetGray(x, y, c)
		}
	}
	return m, h, nil
}

// Pack returns the pixel array of m: rows bottom-up, padded to 4 bytes,
// with a 1 bit for every pixel of at least 0x80 (white).
func Pack(m *image.Gray) []byte {
	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	rowBytes := g4.RowBytes(width)
	out := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		row := out[(height-1-y)*rowBytes:]
		pix := m.Pix[m.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < width; x++ {
			if pix[x] >= 0x80 {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return out
}

// Encode writes m as a 1-bit BMP image with a black (index 0) and white
// (index 1) palette.
func Encode(w io.Writer, m *image.Gray) error {
	bounds := m.Bounds()
	pixels := Pack(m)
	const offset = fileHeaderLen + infoHeaderLen + paletteLen
	var b [offset]byte
	b[0], b[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(b[2:6], uint32(offset+len(pixels)))
	binary.LittleEndian.PutUint32(b[10:14], offset)
	binary.LittleEndian.PutUint32(b[14:18], infoHeaderLen)
	binary.LittleEndian.PutUint32(b[18:22], uint32(bounds.Dx()))
	binary.LittleEndian.PutUint32(b[22:26], uint32(bounds.Dy()))
	binary.LittleEndian.PutUint16(b[26:28], 1) // planes
	binary.LittleEndian.PutUint16(b[28:30], 1) // bits per pixel
	binary.LittleEndian.PutUint32(b[34:38], uint32(len(pixels)))
	binary.LittleEndian.PutUint32(b[38:42], 2835) // 72 dpi
	binary.LittleEndian.PutUint32(b[42:46], 2835)
	binary.LittleEndian.PutUint32(b[46:50], 2) // colors used
	// palette: index 0 black, index 1 white
	copy(b[58:62], []byte{0xff, 0xff, 0xff, 0x00})
	if _, err := w.Write(b[:]); err != nil {
		return err
	}
	_, err := w.Write(pixels)
	return err
}
