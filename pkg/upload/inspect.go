package upload

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Upload kinds accepted by the API.
const (
	KindProposal       = "proposal"
	KindVideo          = "video"
	KindPortfolio      = "portfolio"
	KindTranscript     = "transcript"
	KindCV             = "cv"
	KindRecommendation = "recommendation"
	KindOther          = "other"
)

// Rule describes the expected shape of one upload kind.
type Rule struct {
	Extensions []string
	MIMEs      []string
	CountPages bool
}

var pdfRule = Rule{Extensions: []string{".pdf"}, MIMEs: []string{"application/pdf"}, CountPages: true}

// Rules maps each kind to its advisory type rule.
var Rules = map[string]Rule{
	KindProposal:       pdfRule,
	KindTranscript:     pdfRule,
	KindCV:             pdfRule,
	KindRecommendation: pdfRule,
	KindVideo:          {Extensions: []string{".mp4", ".mov", ".webm", ".avi", ".mkv"}, MIMEs: []string{"video/"}},
	KindPortfolio: {
		Extensions: []string{".zip", ".rar"},
		MIMEs:      []string{"application/zip", "application/x-rar-compressed", "application/vnd.rar", "application/octet-stream"},
	},
	KindOther: {},
}

// File is the subset of multipart.File needed for inspection.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Report summarises an inspected upload. Warnings are advisory unless the caller enforces them.
type Report struct {
	Kind        string   `json:"kind"`
	Filename    string   `json:"filename"`
	ContentType string   `json:"content_type"`
	Size        int64    `json:"size"`
	PageCount   int      `json:"page_count,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// OK reports whether the upload matched every rule.
func (r *Report) OK() bool { return len(r.Warnings) == 0 }

// Inspect sniffs the content type, checks the size limit and counts PDF pages.
// The file is rewound before returning.
func Inspect(kind, filename string, f File, size, maxBytes int64) (*Report, error) {
	rule, ok := Rules[kind]
	if !ok {
		return nil, fmt.Errorf("unknown upload kind %q", kind)
	}
	report := &Report{Kind: kind, Filename: filepath.Base(filename), Size: size}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload header: %w", err)
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	report.ContentType = http.DetectContentType(head)

	if size == 0 {
		report.Warnings = append(report.Warnings, "file is empty")
	}
	if maxBytes > 0 && size > maxBytes {
		report.Warnings = append(report.Warnings, fmt.Sprintf("file exceeds %d MB", maxBytes/(1024*1024)))
	}
	if len(rule.Extensions) > 0 && !hasAny(strings.ToLower(filepath.Ext(filename)), rule.Extensions, equal) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("expected %s file", strings.Join(rule.Extensions, ", ")))
	}
	if len(rule.MIMEs) > 0 && !hasAny(report.ContentType, rule.MIMEs, strings.HasPrefix) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("unexpected content type %s", report.ContentType))
	}

	if rule.CountPages && bytes.HasPrefix(head, []byte("%PDF-")) {
		pages, err := countPages(f, size)
		if err != nil {
			report.Warnings = append(report.Warnings, "unreadable PDF")
		} else {
			report.PageCount = pages
			if pages == 0 {
				report.Warnings = append(report.Warnings, "PDF has no pages")
			}
		}
	}
	return report, nil
}

func countPages(f io.ReaderAt, size int64) (pages int, err error) {
	// the parser panics on some malformed trailers
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(f, size)
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func equal(a, b string) bool { return a == b }

func hasAny(value string, candidates []string, match func(string, string) bool) bool {
	for _, c := range candidates {
		if match(value, c) {
			return true
		}
	}
	return false
}
