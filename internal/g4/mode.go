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

package g4

import "github.com/stapelberg/faxg4/internal/bitio"

// Color is the value of one pixel. White corresponds to a 1 bit in the
// pixel source: it is the color of the imaginary line above the image and
// of the imaginary pixel in front of each row, i.e. the color every row
// starts with. Which of the two colors appears white on paper is up to the
// caller.
type Color uint8

const (
	Black Color = iota
	White
)

func colorOf(bit bool) Color {
	if bit {
		return White
	}
	return Black
}

func (c Color) bit() bool { return c == White }

func (c Color) opposite() Color { return 1 - c }

// String implements fmt.Stringer.
func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Mode is one of the three coding modes of T.6, section 2.2.
type Mode int

const (
	Pass Mode = iota
	Horizontal
	Vertical
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Pass:
		return "pass"
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "<unknown>"
	}
}

// step is one coding decision, taken at changing element a0.
type step struct {
	Mode  Mode
	Color Color // color of a0

	A0 int // never -1: the imaginary start position is reported as 0
	A1 int
	A2 int // only set in Horizontal mode
	B1 int
	B2 int

	Next int // a0 for the following step
}

// nextStep selects the coding mode for the changing element a0 of the
// coding row. color is only used for a0 == -1; otherwise the color of a0
// is read from the coding row.
func nextStep(coding, reference *bitio.Row, a0 int, color Color) step {
	if a0 > -1 {
		color = colorOf(coding.Bit(a0))
	}
	s := step{Color: color}
	s.A1 = coding.NextChangingElement(a0, color.opposite().bit())
	s.B1 = reference.NextChangingElement(a0, color.opposite().bit())
	s.B2 = reference.NextChangingElement(s.B1, color.bit())
	if a0 == -1 {
		a0 = 0
	}
	s.A0 = a0

	switch delta := s.B1 - s.A1; {
	case s.B2 < s.A1:
		s.Mode = Pass
		s.Next = s.B2

	case -3 <= delta && delta <= 3:
		s.Mode = Vertical
		s.Next = s.A1

	default:
		s.Mode = Horizontal
		s.A2 = coding.NextChangingElement(s.A1, color.bit())
		s.Next = s.A2
	}
	return s
}

// appendCodes appends the code words for s to dst.
func (s step) appendCodes(dst []code) []code {
	switch s.Mode {
	case Pass:
		return append(dst, passCode)
	case Vertical:
		return append(dst, verticalCodes[s.B1-s.A1+3])
	}
	dst = append(dst, horizontalCode)
	dst = appendRun(dst, s.Color, s.A1-s.A0)
	return appendRun(dst, s.Color.opposite(), s.A2-s.A1)
}
