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

package httperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stapelberg/faxg4/internal/httperr"
)

func TestHandle(t *testing.T) {
	errBad := errors.New("bad input")
	for _, test := range []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "ok",
			err:      nil,
			wantCode: http.StatusOK,
			wantBody: "hello",
		},
		{
			name:     "plain",
			err:      errBad,
			wantCode: http.StatusInternalServerError,
			wantBody: "bad input\n",
		},
		{
			name:     "code",
			err:      httperr.Error(http.StatusBadRequest, errBad),
			wantCode: http.StatusBadRequest,
			wantBody: "bad input\n",
		},
		{
			name:     "wrapped code",
			err:      fmt.Errorf("page 2: %w", httperr.Error(http.StatusRequestEntityTooLarge, errBad)),
			wantCode: http.StatusRequestEntityTooLarge,
			wantBody: "page 2: bad input\n",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			h := httperr.Handle(func(w http.ResponseWriter, r *http.Request) error {
				if test.err != nil {
					return test.err
				}
				fmt.Fprint(w, "hello")
				return nil
			})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/convert", nil))
			if got, want := rec.Code, test.wantCode; got != want {
				t.Errorf("unexpected HTTP status: got %d, want %d", got, want)
			}
			if got, want := rec.Body.String(), test.wantBody; got != want {
				t.Errorf("unexpected body: got %q, want %q", got, want)
			}
		})
	}
}

func TestHandleCanceled(t *testing.T) {
	h := httperr.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return fmt.Errorf("encoding: %w", context.Canceled)
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/convert", nil))
	if got := rec.Body.String(); strings.TrimSpace(got) != "" {
		t.Errorf("unexpected body for canceled request: %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	errBad := errors.New("bad input")
	if err := httperr.Error(http.StatusBadRequest, errBad); !errors.Is(err, errBad) {
		t.Errorf("errors.Is(%v, %v) = false", err, errBad)
	}
}
