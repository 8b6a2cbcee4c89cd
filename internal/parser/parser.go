package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Method converts a document on disk into plain text.
type Method func(filePath string) (string, error)

// Extractor pulls plain text out of uploaded documents. PDFs go through a
// primary method and, when that yields fewer than MinTextLen characters, a
// slower secondary method; the longer result wins.
type Extractor struct {
	Primary    Method
	Secondary  Method
	MinTextLen int
}

const defaultMinTextLen = 200

func NewExtractor(minTextLen int) *Extractor {
	if minTextLen <= 0 {
		minTextLen = defaultMinTextLen
	}
	return &Extractor{
		Primary:    PlainTextPDF,
		Secondary:  RowTextPDF,
		MinTextLen: minTextLen,
	}
}

// Extract dispatches on the file extension. Anything that is not a known
// office or text format is treated as a PDF.
func (e *Extractor) Extract(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".docx":
		return parseDOCX(filePath)
	case ".pptx":
		return parsePPTX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".xlsm", ".xltx", ".xltm":
		return parseWorkbook(filePath)
	case ".txt", ".md":
		return parseText(filePath)
	default:
		return e.ExtractPDF(filePath)
	}
}

func (e *Extractor) ExtractPDF(filePath string) (string, error) {
	primary, err := e.Primary(filePath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(filePath), err)
	}
	primaryLen := utf8.RuneCountInString(primary)
	if primaryLen >= e.MinTextLen {
		return primary, nil
	}

	log.Debug().Str("file", filePath).Int("chars", primaryLen).Msg("Primary extraction too short, trying secondary")
	secondary, err := e.Secondary(filePath)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("Secondary extraction failed, keeping primary result")
		return primary, nil
	}
	if utf8.RuneCountInString(secondary) > primaryLen {
		return secondary, nil
	}
	return primary, nil
}
