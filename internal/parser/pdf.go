package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

func init() {
	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()
}

// PlainTextPDF is the fast path: the content stream text of every page.
func PlainTextPDF(filePath string) (text string, err error) {
	defer recoverPDF(&err)
	return readPages(filePath, func(p pdf.Page) (string, error) {
		return p.GetPlainText(nil)
	})
}

// RowTextPDF rewrites the file with pdfcpu first, which repairs broken xref
// tables and unusual object layouts, then rebuilds each page from positioned
// text rows. If the rewrite fails the original file is read.
func RowTextPDF(filePath string) (text string, err error) {
	defer recoverPDF(&err)

	src := filePath
	normalized, cleanup, nerr := normalizePDF(filePath)
	if nerr != nil {
		log.Debug().Err(nerr).Str("file", filePath).Msg("PDF normalization failed, reading original")
	} else {
		defer cleanup()
		src = normalized
	}
	return readPages(src, pageRows)
}

func readPages(filePath string, pageText func(pdf.Page) (string, error)) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var parts []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := pageText(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if txt == "" {
			continue
		}
		parts = append(parts, txt)
	}
	return strings.Join(parts, "\n"), nil
}

func pageRows(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, row := range rows {
		line := joinRow(row.Content)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// joinRow rebuilds one row from its runs. GetTextByRow only knows positions
// set by Tm and never fills in widths; a Td shows up as an empty run.
func joinRow(texts pdf.TextHorizontal) string {
	var (
		b     strings.Builder
		prev  pdf.Text
		seen  bool
		moved bool
	)
	for _, t := range texts {
		if t.S == "" {
			moved = seen
			continue
		}
		if seen {
			b.WriteString(runSeparator(prev, t, moved))
		}
		b.WriteString(t.S)
		prev, seen, moved = t, true, false
	}
	return strings.TrimSpace(b.String())
}

func runSeparator(prev, t pdf.Text, moved bool) string {
	if moved {
		return "\n"
	}
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(t.S, " ") {
		return ""
	}
	// no width and no forward movement: the runs cannot be placed relative
	// to each other, so keep them apart
	if prev.W == 0 && t.X <= prev.X {
		return " "
	}
	if t.X-(prev.X+prev.W) > t.FontSize*0.2 {
		return " "
	}
	return ""
}

func normalizePDF(filePath string) (string, func(), error) {
	out, err := os.CreateTemp("", "normalized-*.pdf")
	if err != nil {
		return "", nil, err
	}
	out.Close()
	cleanup := func() { os.Remove(out.Name()) }

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(filePath, out.Name(), cfg); err != nil {
		cleanup()
		return "", nil, err
	}
	return out.Name(), cleanup, nil
}

// the pdf package panics on some malformed files
func recoverPDF(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf: %v", r)
	}
}
