package routepath

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{input: "/docs/intro", want: "/docs/intro"},
		{input: "/docs/%EC%84%A4%EC%B9%98", want: "/docs/설치"},
		{input: "/docs/%ec%84%a4%ec%b9%98", want: "/docs/설치"},
		{input: "/docs/설치", want: "/docs/설치"},
		{input: "/a%20b/c", want: "/a b/c"},
		{input: "/rate%2525", want: "/rate%25"},
		{input: "/docs/a%2Fb", wantErr: ErrEncodedSlash},
		{input: "/docs/%2E%2E/x", wantErr: ErrEncodedDotSegment},
		{input: "/docs/%2e", wantErr: ErrEncodedDotSegment},
	}

	for _, tt := range tests {
		got, err := Decode(tt.input)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("Decode(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	res, err := Normalize("docs//%EC%84%A4%EC%B9%98/?tab=1")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.Path != "/docs/설치" || res.Query != "tab=1" || !res.Changed {
		t.Errorf("Normalize = %+v", res)
	}

	if _, err := Normalize("/docs/%zz"); !errors.Is(err, ErrInvalidPercentEscape) {
		t.Errorf("Normalize invalid escape error = %v", err)
	}
	if _, err := Normalize("/docs/a%2fb"); !errors.Is(err, ErrEncodedSlash) {
		t.Errorf("Normalize encoded slash error = %v", err)
	}
}
