package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{name: "config not found", code: "D001", wantMsg: "Configuration file not found", wantCat: CategoryConfig},
		{name: "manifest parse", code: "D004", wantMsg: "Manifest could not be parsed", wantCat: CategoryManifest},
		{name: "route table", code: "D005", wantMsg: "Route table could not be built", wantCat: CategoryRouting},
		{name: "unknown code", code: "D999", wantMsg: "Unknown error", wantCat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New("D003")
	if got := err.Error(); got != "D003: Manifest not found" {
		t.Errorf("Error() = %q", got)
	}

	err.Wrap(os.ErrNotExist)
	if got := err.Error(); got != "D003: Manifest not found: file does not exist" {
		t.Errorf("Error() with cause = %q", got)
	}

	plain := &Error{Message: "bad flag"}
	if plain.Error() != "bad flag" {
		t.Errorf("uncoded Error() = %q", plain.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("D006").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "D002") != nil {
		t.Error("FromError(nil) should be nil")
	}

	cause := stderrors.New("plain")
	wrapped := FromError(cause, "D002")
	if wrapped.Code != "D002" || wrapped.Wrapped != cause {
		t.Errorf("FromError = %+v", wrapped)
	}

	existing := New("D004")
	if got := FromError(existing, "D002"); got != existing {
		t.Error("FromError should return an existing *Error unchanged")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", New("D003"))
	if !HasCode(err, "D003") {
		t.Error("HasCode should see a wrapped *Error")
	}
	if HasCode(err, "D004") {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(stderrors.New("plain"), "D003") {
		t.Error("HasCode matched a plain error")
	}
}

func TestWithLocation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "routes.json")
	content := "[\n  {\n    \"path\": \"/docs\",\n    \"exact\": yes\n  }\n]\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("D004").WithLocation(file, 4, 14)
	if err.Location.String() != file+":4:14" {
		t.Errorf("Location = %q", err.Location.String())
	}
	if len(err.Context) != 5 {
		t.Fatalf("len(Context) = %d, want 5", len(err.Context))
	}
	if err.Context[2] != `    "exact": yes` {
		t.Errorf("Context[2] = %q", err.Context[2])
	}
}

func TestLocationString(t *testing.T) {
	var nilLoc *Location
	if nilLoc.String() != "" {
		t.Error("nil Location should format empty")
	}
	if (&Location{File: "a.yaml", Line: 3}).String() != "a.yaml:3" {
		t.Error("Location without column")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	dir := t.TempDir()
	file := filepath.Join(dir, "routes.yaml")
	if err := os.WriteFile(file, []byte("- path: /docs\n  exact: [\n- path: \"*\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("D004").
		WithLocation(file, 2, 10).
		WithSuggestion("Regenerate the manifest").
		Wrap(stderrors.New("yaml: line 2: did not find expected node content"))

	out := err.Format()
	for _, want := range []string{
		"ERROR D004: Manifest could not be parsed",
		file + ":2:10",
		"→    2 │   exact: [",
		"         ^",
		"Hint: Regenerate the manifest",
		"did not find expected node content",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatContextAtFileStart(t *testing.T) {
	DisableColors()
	defer EnableColors()

	dir := t.TempDir()
	file := filepath.Join(dir, "routes.yaml")
	if err := os.WriteFile(file, []byte("- path: [\n  exact: true\n- path: \"*\"\n- path: /x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("D004").WithLocation(file, 1, 0)
	if len(err.Context) != contextLines/2+1 {
		t.Fatalf("len(Context) = %d, want %d", len(err.Context), contextLines/2+1)
	}
	if out := err.Format(); !strings.Contains(out, "→    1 │ - path: [") {
		t.Errorf("Format() should number the first line 1:\n%s", out)
	}
}

func TestColorsToggle(t *testing.T) {
	DisableColors()
	if ColorsEnabled() {
		t.Error("ColorsEnabled() after DisableColors")
	}
	if got := red("x"); got != "x" {
		t.Errorf("red() with colors off = %q", got)
	}
	EnableColors()
	if !ColorsEnabled() {
		t.Error("ColorsEnabled() after EnableColors")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("D004")
	err.Location = &Location{File: "routes.json", Line: 4, Column: 2}
	if got := err.FormatCompact(); got != "routes.json:4:2: D004: Manifest could not be parsed" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, New("D001"))
	if !strings.Contains(buf.String(), "ERROR D001: Configuration file not found") {
		t.Errorf("Fprint(coded) = %q", buf.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 || codes[0] != "D001" {
		t.Fatalf("GetAllCodes() = %v", codes)
	}
	for _, code := range codes {
		if _, ok := GetTemplate(code); !ok {
			t.Errorf("GetTemplate(%q) missing", code)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	want := []string{"one two", "three", "four five", "six"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", lines, want)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
