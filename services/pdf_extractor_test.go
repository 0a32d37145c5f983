package services

import (
	"context"
	"errors"
	"testing"

	"pdf-research-summarizer/models"
)

func TestCleanExtractedText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "control characters removed",
			in:   "hello\x00world\x0b!",
			want: "helloworld!",
		},
		{
			name: "page number lines dropped",
			in:   "First paragraph.\n3\nSecond paragraph.",
			want: "First paragraph.\nSecond paragraph.",
		},
		{
			name: "page word lines dropped",
			in:   "First.\nPage 12\nSecond.",
			want: "First.\nSecond.",
		},
		{
			name: "whitespace collapsed",
			in:   "a   b\t\tc",
			want: "a b c",
		},
		{
			name: "blank runs collapsed to one blank line",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "paragraph breaks preserved",
			in:   "para one\n\npara two",
			want: "para one\n\npara two",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanExtractedText(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAlphaRatio(t *testing.T) {
	if r := alphaRatio("abcd"); r != 1.0 {
		t.Errorf("all letters should be 1.0, got %v", r)
	}
	if r := alphaRatio("1234"); r != 0.0 {
		t.Errorf("no letters should be 0.0, got %v", r)
	}
	if r := alphaRatio(""); r != 0.0 {
		t.Errorf("empty should be 0.0, got %v", r)
	}
}

func TestGuessTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "first line wins",
			in:   "A Study of Things\n\nAbstract\nBody.",
			want: "A Study of Things",
		},
		{
			name: "sentence is not a title",
			in:   "This document begins with a full sentence.\nMore text.",
			want: "",
		},
		{
			name: "leading blank lines skipped",
			in:   "\n\nThe Actual Title\nBody.",
			want: "The Actual Title",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guessTitle(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	e := NewPDFExtractor()
	doc := models.Document{
		Data:        []byte("%PDF-1.4 not actually parseable content"),
		ContentType: "application/pdf",
		Size:        39,
		Filename:    "garbage.pdf",
	}

	_, err := e.ExtractText(context.Background(), doc)
	var eErr *ExtractionError
	if !errors.As(err, &eErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}
