package routepath

import "testing"

func TestHasSegmentPrefix(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{"/docs", "/docs", true},
		{"/docs/next", "/docs", true},
		{"/docs-extra/page", "/docs", false},
		{"/docs-extra/page", "/docs-extra", true},
		{"/doc", "/docs", false},
		{"/anything", "/", true},
		{"/", "/", true},
		{"/docs", "", false},
		{"/docs/next", "/docs/next/intro", false},
	}

	for _, tt := range tests {
		if got := HasSegmentPrefix(tt.path, tt.prefix); got != tt.want {
			t.Errorf("HasSegmentPrefix(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		parent string
		child  string
		want   string
	}{
		{"/docs", "next", "/docs/next"},
		{"/docs", "/docs/next", "/docs/next"},
		{"/docs", "/elsewhere", "/elsewhere"},
		{"/", "docs", "/docs"},
		{"", "docs", "/docs"},
		{"/docs/", "next/", "/docs/next"},
		{"/docs/next", "../intro", "/docs/intro"},
	}

	for _, tt := range tests {
		got, err := Join(tt.parent, tt.child)
		if err != nil {
			t.Fatalf("Join(%q, %q): %v", tt.parent, tt.child, err)
		}
		if got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.parent, tt.child, got, tt.want)
		}
	}

	if _, err := Join("/", "../x"); err == nil {
		t.Error("Join(\"/\", \"../x\") should fail")
	}
}
