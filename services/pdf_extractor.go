package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	dslipak "github.com/dslipak/pdf"
	"github.com/ledongthuc/pdf"

	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/models"
)

// PDFExtractor turns raw PDF bytes into plain text. It tries a primary
// extraction library and falls back to a second, independent one when the
// primary errors out or produces implausible text. Extraction failure is
// structural, so neither method is ever retried.
type PDFExtractor struct {
	minAlphaRatio float64
	methods       []extractionMethod
}

type extractionMethod struct {
	name    string
	extract func(ctx context.Context, content []byte) (string, int, error)
}

// NewPDFExtractor creates a new PDF extractor with the default method chain.
func NewPDFExtractor() *PDFExtractor {
	e := &PDFExtractor{minAlphaRatio: 0.4}
	e.methods = []extractionMethod{
		{"ledongthuc", e.extractWithLedongthuc},
		{"dslipak", e.extractWithDslipak},
	}
	return e
}

// ExtractText extracts plain text from doc, cleaning PDF artifacts. Returns an
// *ExtractionError when every method fails or yields implausible text.
func (e *PDFExtractor) ExtractText(ctx context.Context, doc models.Document) (models.ExtractedText, error) {
	var errs []error

	for _, method := range e.methods {
		if err := ctx.Err(); err != nil {
			return models.ExtractedText{}, err
		}

		raw, pages, err := method.extract(ctx, doc.Data)
		if err != nil {
			logger.Warn("Extraction method failed", "method", method.name, "file", doc.Filename, "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", method.name, err))
			continue
		}

		cleaned := cleanExtractedText(raw)
		if !e.plausible(cleaned) {
			logger.Warn("Extraction produced implausible text", "method", method.name,
				"chars", len(cleaned), "alpha_ratio", fmt.Sprintf("%.2f", alphaRatio(cleaned)))
			errs = append(errs, fmt.Errorf("%s: implausible text (%d chars)", method.name, len(cleaned)))
			continue
		}

		logger.Info("Extracted text from PDF", "method", method.name, "pages", pages, "chars", len(cleaned))
		return models.ExtractedText{
			Content:   cleaned,
			Method:    method.name,
			PageCount: pages,
			Title:     guessTitle(cleaned),
		}, nil
	}

	extErr := &ExtractionError{Reason: "no readable text could be extracted"}
	if len(errs) > 0 {
		extErr.PrimaryErr = errs[0]
	}
	if len(errs) > 1 {
		extErr.FallbackErr = errs[1]
	}
	return models.ExtractedText{}, extErr
}

// extractWithLedongthuc is the primary method.
func (e *PDFExtractor) extractWithLedongthuc(ctx context.Context, content []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("Failed to extract page text", "page", i, "error", err.Error())
			continue
		}
		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	extracted := textBuilder.String()
	if len(strings.TrimSpace(extracted)) == 0 {
		return "", 0, fmt.Errorf("no text extracted")
	}
	return extracted, pages, nil
}

// extractWithDslipak is the fallback method. Page extraction is wrapped so a
// single malformed page cannot sink the whole document.
func (e *PDFExtractor) extractWithDslipak(ctx context.Context, content []byte) (string, int, error) {
	reader, err := dslipak.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := protectedPageText(page)
		if err != nil {
			logger.Debug("Failed to extract page text", "page", i, "error", err.Error())
			continue
		}
		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	extracted := textBuilder.String()
	if len(strings.TrimSpace(extracted)) == 0 {
		return "", 0, fmt.Errorf("no text extracted")
	}
	return extracted, pages, nil
}

// protectedPageText recovers from panics inside the pdf library, which can
// occur on malformed content streams.
func protectedPageText(page dslipak.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page extraction panicked: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}

// plausible reports whether text looks like readable prose rather than
// extraction garbage.
func (e *PDFExtractor) plausible(text string) bool {
	if len(strings.TrimSpace(text)) < 10 {
		return false
	}
	return alphaRatio(text) >= e.minAlphaRatio
}

// alphaRatio is the fraction of alphabetic runes among all runes.
func alphaRatio(text string) float64 {
	var letters, total int
	for _, r := range text {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

var (
	controlCharRegex   = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	multiBlankRegex    = regexp.MustCompile(`\n\s*\n\s*\n+`)
	trailingSpaceRegex = regexp.MustCompile(`[ \t]+\n`)
	leadingSpaceRegex  = regexp.MustCompile(`\n[ \t]+`)
	pageNumberRegex    = regexp.MustCompile(`(?i)^(\d+|page\s+\d+)$`)
	inlineSpaceRegex   = regexp.MustCompile(`[ \t]{2,}`)
)

// cleanExtractedText strips PDF artifacts: control characters, page-number
// lines, stray whitespace. Paragraph structure is preserved for the section
// detector.
func cleanExtractedText(text string) string {
	if text == "" {
		return ""
	}

	text = controlCharRegex.ReplaceAllString(text, "")
	text = trailingSpaceRegex.ReplaceAllString(text, "\n")
	text = leadingSpaceRegex.ReplaceAllString(text, "\n")
	text = inlineSpaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if pageNumberRegex.MatchString(trimmed) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	text = strings.Join(cleaned, "\n")
	text = multiBlankRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// guessTitle takes the first short, sentence-free line as the paper title.
// Returns "" when nothing qualifies; the aggregator has its own fallbacks.
func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 150 || strings.HasSuffix(line, ".") {
			return ""
		}
		return line
	}
	return ""
}
