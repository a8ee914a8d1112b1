package util

import "testing"

func TestSplitFileName(t *testing.T) {
	tests := []struct {
		in, stem, ext string
	}{
		{"Resume.PDF", "Resume", "pdf"},
		{"C:\\Users\\me\\cv.docx", "cv", "docx"},
		{"notes", "notes", ""},
		{"archive.tar.txt", "archive.tar", "txt"},
	}
	for _, tt := range tests {
		stem, ext := SplitFileName(tt.in)
		if stem != tt.stem || ext != tt.ext {
			t.Fatalf("SplitFileName(%q) = (%q, %q), want (%q, %q)", tt.in, stem, ext, tt.stem, tt.ext)
		}
	}
}
