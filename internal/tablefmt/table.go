package tablefmt

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Table is a markdown table with cell text only; inline formatting is dropped.
type Table struct {
	Header []string
	Rows   [][]string
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ParseTables returns every GFM table found in src, in document order.
func ParseTables(src string) []Table {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var tables []Table
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		tbl, ok := n.(*east.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		tables = append(tables, readTable(tbl, source))
		return ast.WalkSkipChildren, nil
	})
	return tables
}

func readTable(tbl *east.Table, source []byte) Table {
	var t Table
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, cellText(cell, source))
		}
		switch row.(type) {
		case *east.TableHeader:
			t.Header = cells
		case *east.TableRow:
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}

func cellText(cell ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(cell, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
