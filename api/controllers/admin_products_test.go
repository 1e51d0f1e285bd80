package controllers

import (
	"io"
	"strings"
	"testing"

	"github.com/oneclickretail/oneclick-backend/internal/catalog"
)

type spyCloser struct {
	io.Reader
	closed bool
}

func (s *spyCloser) Close() error {
	s.closed = true
	return nil
}

func TestParseMultipartUploadsCollectsFiles(t *testing.T) {
	req := multipartOrderRequest(t, `{}`, map[string]string{"a.jpg": "aa", "b.jpg": "bb"})

	files, err := parseMultipartUploads(req, testUploadsConfig())
	if err != nil {
		t.Fatalf("parse uploads: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(files))
	}
	for _, f := range files {
		if _, ok := f.Reader.(io.Closer); !ok {
			t.Fatalf("expected closeable reader for %s", f.Filename)
		}
	}
	closeUploads(files)
}

func TestParseMultipartUploadsRejectsTooManyFiles(t *testing.T) {
	parts := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		parts[name+".jpg"] = "x"
	}
	req := multipartOrderRequest(t, `{}`, parts)

	files, err := parseMultipartUploads(req, testUploadsConfig())
	if err == nil {
		t.Fatal("expected validation error for too many files")
	}
	if files != nil {
		t.Fatalf("expected no uploads on error, got %d", len(files))
	}
}

func TestCloseUploadsReleasesHandles(t *testing.T) {
	first := &spyCloser{Reader: strings.NewReader("a")}
	second := &spyCloser{Reader: strings.NewReader("b")}

	closeUploads([]catalog.ImageUpload{
		{Filename: "a.jpg", Reader: first},
		{Filename: "b.jpg", Reader: second},
		{Filename: "c.jpg", Reader: strings.NewReader("c")},
	})

	if !first.closed || !second.closed {
		t.Fatalf("expected every file handle closed, got %v and %v", first.closed, second.closed)
	}
}
