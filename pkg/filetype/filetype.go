package filetype

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

type Kind string

const (
	KindPDF      Kind = "pdf"
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindImage    Kind = "image"
	KindUnknown  Kind = "unknown"
)

// Detect classifies data by content. Any textual format counts as text;
// the filename only refines text into markdown.
func Detect(filename string, data []byte) (Kind, string) {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		return KindPDF, mtype.String()
	case strings.HasPrefix(mtype.String(), "image/"):
		return KindImage, mtype.String()
	case isText(mtype):
		ext := strings.ToLower(filepath.Ext(filename))
		if ext == ".md" || ext == ".markdown" {
			return KindMarkdown, mtype.String()
		}
		return KindText, mtype.String()
	}
	return KindUnknown, mtype.String()
}

// isText reports whether m is text/plain or descends from it (html, csv,
// json and the other textual formats mimetype knows).
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Hash is the hex sha256 of data, used for upload dedup.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// UniqueFilename appends the unix timestamp to the base name, keeping the
// extension: report.pdf -> report_1700000000.pdf.
func UniqueFilename(filename string, now time.Time) string {
	return CandidateFilename(filename, now, 0)
}

// CandidateFilename is UniqueFilename with a collision counter. Attempt 0
// is the plain timestamped name; later attempts add _1, _2, ...
func CandidateFilename(filename string, now time.Time, attempt int) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if attempt == 0 {
		return fmt.Sprintf("%s_%d%s", name, now.Unix(), ext)
	}
	return fmt.Sprintf("%s_%d_%d%s", name, now.Unix(), attempt, ext)
}
