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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stapelberg/faxg4/internal/g4"
)

var testStats = g4.Stats{
	Rows:        55,
	Pass:        13,
	Horizontal:  55,
	Vertical:    [7]int{3, 6, 43, 193, 39, 24, 11},
	MakeUp:      6,
	Terminating: 110,
	Bytes:       197,
}

func TestBars(t *testing.T) {
	var got []string
	for _, v := range bars(&testStats) {
		got = append(got, fmt.Sprintf("%s=%v", v.Label, v.Value))
	}
	want := []string{
		"P=13",
		"H=55",
		"VR3=3",
		"VR2=6",
		"VR1=43",
		"V0=193",
		"VL1=39",
		"VL2=24",
		"VL3=11",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected bars: diff (-want +got):\n%s", diff)
	}
}

func TestWriteChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.svg")
	if err := writeChart(path, &testStats); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("<svg")) {
		t.Errorf("chart does not start with <svg: %.40q", b)
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, "gopher", &testStats)
	for _, want := range []string{
		"gopher: 55 rows, 197 bytes (3.58 bytes/row)\n",
		"pass 13, horizontal 55 (6 make-up, 110 terminating codes), vertical 319\n",
		"    V0  193\n",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, buf.String())
		}
	}
}
