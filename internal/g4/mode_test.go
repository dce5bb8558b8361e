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

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stapelberg/faxg4/internal/bitio"
)

// rowFromString returns a Row with one pixel per character of s ('1' or
// '0').
func rowFromString(s string) *bitio.Row {
	buf := make([]byte, RowBytes(len(s)))
	for i, c := range s {
		if c == '1' {
			buf[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return bitio.NewRow(buf, len(s))
}

// steps returns all coding decisions for one row.
func steps(coding, reference *bitio.Row) []step {
	var result []step
	a0, color := -1, White
	for a0 < coding.Len() {
		s := nextStep(coding, reference, a0, color)
		result = append(result, s)
		a0, color = s.Next, s.Color
	}
	return result
}

func TestNextStep(t *testing.T) {
	for _, test := range []struct {
		coding    string
		reference string
		want      []step
	}{
		{
			coding:    "11111111",
			reference: "11111111",
			want: []step{
				{Mode: Vertical, Color: White, A0: 0, A1: 8, B1: 8, B2: 8, Next: 8},
			},
		},

		{
			coding:    "11000011",
			reference: "11110000",
			want: []step{
				{Mode: Vertical, Color: White, A0: 0, A1: 2, B1: 4, B2: 8, Next: 2},
				{Mode: Vertical, Color: Black, A0: 2, A1: 6, B1: 8, B2: 8, Next: 6},
				{Mode: Vertical, Color: White, A0: 6, A1: 8, B1: 8, B2: 8, Next: 8},
			},
		},

		{
			coding:    "1111111111000000",
			reference: "1111111111111111",
			want: []step{
				{Mode: Horizontal, Color: White, A0: 0, A1: 10, A2: 16, B1: 16, B2: 16, Next: 16},
			},
		},

		{
			coding:    "1100111111111111",
			reference: "1111110011111111",
			want: []step{
				{Mode: Horizontal, Color: White, A0: 0, A1: 2, A2: 4, B1: 6, B2: 8, Next: 4},
				{Mode: Pass, Color: White, A0: 4, A1: 16, B1: 6, B2: 8, Next: 8},
				{Mode: Vertical, Color: White, A0: 8, A1: 16, B1: 16, B2: 16, Next: 16},
			},
		},

		{
			// a row starting with a black pixel: a zero-length white run
			coding:    "0000000011111111",
			reference: "1111111111111111",
			want: []step{
				{Mode: Horizontal, Color: White, A0: 0, A1: 0, A2: 8, B1: 16, B2: 16, Next: 8},
				{Mode: Vertical, Color: White, A0: 8, A1: 16, B1: 16, B2: 16, Next: 16},
			},
		},

		{
			coding:    "11111111",
			reference: "11001111",
			want: []step{
				{Mode: Pass, Color: White, A0: 0, A1: 8, B1: 2, B2: 4, Next: 4},
				{Mode: Vertical, Color: White, A0: 4, A1: 8, B1: 8, B2: 8, Next: 8},
			},
		},
	} {
		t.Run(test.coding+"/"+test.reference, func(t *testing.T) {
			got := steps(rowFromString(test.coding), rowFromString(test.reference))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("unexpected steps: diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStepCodes(t *testing.T) {
	for idx, test := range []struct {
		s    step
		want []code
	}{
		{
			s:    step{Mode: Pass, B1: 2, B2: 4, A1: 8},
			want: []code{passCode},
		},
		{
			s:    step{Mode: Vertical, A1: 5, B1: 2},
			want: []code{{7, 0x3}}, // VR3
		},
		{
			s:    step{Mode: Vertical, A1: 5, B1: 5},
			want: []code{{1, 0x1}}, // V0
		},
		{
			s:    step{Mode: Vertical, A1: 5, B1: 7},
			want: []code{{6, 0x2}}, // VL2
		},
		{
			s: step{Mode: Horizontal, Color: White, A0: 0, A1: 10, A2: 16},
			want: []code{
				horizontalCode,
				terminatingCodesWhite[10],
				terminatingCodesBlack[6],
			},
		},
		{
			s: step{Mode: Horizontal, Color: Black, A0: 3, A1: 200, A2: 201},
			want: []code{
				horizontalCode,
				makeupCodesBlack[2], // 192
				terminatingCodesBlack[5],
				terminatingCodesWhite[1],
			},
		},
	} {
		t.Run(fmt.Sprintf("%d", idx), func(t *testing.T) {
			got := test.s.appendCodes(nil)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("unexpected codes: diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAppendRun(t *testing.T) {
	type run struct {
		c Color
		l int
	}
	for _, test := range []struct {
		num  int
		runs []run
		want []byte
	}{
		// test case 1 to 3 are taken from figure 9-7 in
		// http://www.fileformat.info/mirror/egff/ch09_05.htm
		{
			num:  1,
			runs: []run{{Black, 20}},
			want: []byte{0xd, 0x0}, // [0000 1101 0000] 0000
		},

		{
			num:  2,
			runs: []run{{White, 100}},
			want: []byte{0xd8, 0xa8}, // [1101 1][000 1010 1]000
		},

		{
			num:  3,
			runs: []run{{Black, 8800}},
			want: []byte{
				0x1,  // [0000 0001
				0xf0, // 1111] [0000
				0x1f, // 0001 1111]
				0x1,  // [0000 0001
				0xf0, // 1111] [0000
				0x3a, // 0011 1010]
				0x83, // [1000 0011
				0x50, // 0101] 0000
			},
		},

		{
			num:  4,
			runs: []run{{White, 64}}, // edge case: 64 pixels is exactly on the edge
			want: []byte{
				0xd9, // [1101 1][001
				0xa8, //  1010 1]000
			},
		},

		{
			num: 5,
			// requires one color-specific makeup code and a terminating code
			runs: []run{{Black, 1729}},
			want: []byte{
				0x03, // [0000 0011
				0x2a, //  0010 1][010]
			},
		},

		{
			num: 6,
			// requires one shared makeup code and a terminating code
			runs: []run{{Black, 1793}},
			want: []byte{
				0x01, // [0000 0001
				0x08, //  000][0 10]00
			},
		},

		{
			num: 7,
			// edge case: one makeup code, a terminating code of length 0
			runs: []run{{Black, 2560}},
			want: []byte{
				0x01, // [0000 0001
				0xf0, //  1111][0000
				0xdc, //  1101 11]00
			},
		},

		{
			num: 8,
			// the largest run with a single makeup code: 2560 + 63
			runs: []run{{White, 2623}},
			want: []byte{
				0x01, // [0000 0001
				0xf3, //  1111][0011
				0x40, //  01]00 0000
			},
		},

		{
			num: 9,
			// 2624 = 2560 + 64: two makeup codes
			runs: []run{{White, 2624}},
			want: []byte{
				0x01, // [0000 0001
				0xfd, //  1111][1101
				0x9a, //  1][001 1010
				0x80, //  1]000 0000
			},
		},

		{
			num:  10,
			runs: []run{{White, 0}},
			want: []byte{0x35}, // [0011 0101]
		},
	} {
		t.Run(fmt.Sprintf("%d", test.num), func(t *testing.T) {
			var buf bytes.Buffer
			bw := bitio.NewWriter(&buf)
			for _, run := range test.runs {
				for _, c := range appendRun(nil, run.c, run.l) {
					if err := bw.Write(c.Value, c.Length); err != nil {
						t.Fatal(err)
					}
				}
			}
			if err := bw.Flush(); err != nil {
				t.Fatal(err)
			}
			if got, want := buf.Bytes(), test.want; !bytes.Equal(got, want) {
				t.Errorf("unexpected encoding result: got %x, want %x", got, want)
			}
		})
	}
}

// runLength returns the run length a code word stands for, and whether it
// is a terminating code.
func runLength(t *testing.T, c Color, cw code) (int, bool) {
	t.Helper()
	terminating, makeup := terminatingCodesBlack[:], makeupCodesBlack[:]
	if c == White {
		terminating, makeup = terminatingCodesWhite[:], makeupCodesWhite[:]
	}
	for l, tc := range terminating {
		if tc == cw {
			return l, true
		}
	}
	for bucket, mc := range append(append([]code(nil), makeup...), makeupCodesCommon[:]...) {
		if mc == cw {
			return (bucket + 1) * 64, false
		}
	}
	t.Fatalf("code %v is not a %v run-length code", cw, c)
	return 0, false
}

func TestAppendRunDecomposition(t *testing.T) {
	for _, c := range []Color{White, Black} {
		for l := 0; l < 3*2560+200; l++ {
			codes := appendRun(nil, c, l)
			var sum, makeups int
			for idx, cw := range codes {
				n, terminating := runLength(t, c, cw)
				if terminating != (idx == len(codes)-1) {
					t.Fatalf("%v run %d: code %d (%v) terminating = %v", c, l, idx, cw, terminating)
				}
				if !terminating {
					makeups++
				}
				sum += n
			}
			if sum != l {
				t.Fatalf("%v run %d: codes %v sum up to %d", c, l, codes, sum)
			}
			// Greedy: all but the last make-up code are 2560 pixels.
			want := 0
			if l > 63 {
				want = 1 + (l-64)/2560
			}
			if makeups != want {
				t.Fatalf("%v run %d: %d make-up codes, want %d", c, l, makeups, want)
			}
		}
	}
}

func TestCodeTables(t *testing.T) {
	// All run-length codes of one color (plus EOL) form a prefix code.
	for _, c := range []Color{White, Black} {
		var all []code
		for l := 0; l < 64; l++ {
			all = append(all, terminatingCode(c, l))
		}
		for bucket := 0; bucket < 40; bucket++ {
			all = append(all, makeupCode(c, bucket))
		}
		all = append(all, endOfLine)
		for i, a := range all {
			for j, b := range all {
				if i == j || a.Length > b.Length {
					continue
				}
				if b.Value>>(b.Length-a.Length) == a.Value {
					t.Errorf("%v: code %v is a prefix of %v", c, a, b)
				}
			}
		}
	}
	// Mode codes, too.
	modes := append([]code{passCode, horizontalCode, endOfLine}, verticalCodes[:]...)
	for i, a := range modes {
		for j, b := range modes {
			if i != j && a.Length <= b.Length && b.Value>>(b.Length-a.Length) == a.Value {
				t.Errorf("mode code %v is a prefix of %v", a, b)
			}
		}
	}
}

func TestEncodeRowIdentical(t *testing.T) {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	e := NewEncoder(&buf, nil)
	var stats Stats
	if err := e.encodeRow(bw, rowFromString("11111111"), rowFromString("11111111"), &stats); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Bytes(), []byte{0x80}; !bytes.Equal(got, want) {
		t.Errorf("unexpected row encoding: got %x, want %x (one V0 code)", got, want)
	}
	want := Stats{Vertical: [7]int{0, 0, 0, 1, 0, 0, 0}}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("unexpected stats: diff (-want +got):\n%s", diff)
	}
}
