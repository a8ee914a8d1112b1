package s3

import (
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "resumes/abc.pdf", want: "resumes/abc.pdf"},
		{name: "simple prefix", prefix: "root", key: "resumes/abc.pdf", want: "root/resumes/abc.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "letters/x.docx", want: "root/letters/x.docx"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/resumes/abc.pdf", want: "root/resumes/abc.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "resumes/abc.pdf", want: "root/sub/resumes/abc.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(fmt.Errorf("wrapped: %w", &s3types.NoSuchKey{})) {
		t.Fatalf("expected NoSuchKey to be treated as not found")
	}
	if !isNotFound(&s3types.NotFound{}) {
		t.Fatalf("expected NotFound to be treated as not found")
	}
	if isNotFound(errors.New("access denied")) || isNotFound(nil) {
		t.Fatalf("unexpected not found")
	}
}
