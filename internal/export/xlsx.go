package export

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"document-chat/internal/db"
	"document-chat/internal/tablefmt"
)

const (
	historySheet   = "History"
	testCasesSheet = "Test Cases"
)

// WriteWorkbook writes the chat history as an xlsx workbook: one sheet with
// the raw exchanges and one with every table row found in the replies.
func WriteWorkbook(w io.Writer, rows []db.ChatHistory) error {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(testCasesSheet); err != nil {
		return err
	}

	writeRow(f, historySheet, 1, "ID", "Created At", "User Query", "Bot Response")
	for i, r := range rows {
		writeRow(f, historySheet, i+2, r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.UserQuery, r.BotResponse)
	}
	_ = f.SetColWidth(historySheet, "A", "A", 8)
	_ = f.SetColWidth(historySheet, "B", "B", 22)
	_ = f.SetColWidth(historySheet, "C", "C", 40)
	_ = f.SetColWidth(historySheet, "D", "D", 80)

	cases := 0
	line := 1
	var headerWritten bool
	for _, r := range rows {
		for _, tbl := range tablefmt.ParseTables(r.BotResponse) {
			if !headerWritten {
				writeRow(f, testCasesSheet, line, append([]any{"Exchange ID"}, toAny(tbl.Header)...)...)
				line++
				headerWritten = true
			}
			for _, cells := range tbl.Rows {
				writeRow(f, testCasesSheet, line, append([]any{r.ID}, toAny(cells)...)...)
				line++
				cases++
			}
		}
	}
	_ = f.SetColWidth(testCasesSheet, "A", "C", 14)
	_ = f.SetColWidth(testCasesSheet, "D", "E", 48)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	log.Debug().
		Int("exchanges", len(rows)).
		Int("test_cases", cases).
		Dur("elapsed", time.Since(start)).
		Msg("History exported")
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
