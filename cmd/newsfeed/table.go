package main

import (
	"fmt"
	"strings"

	"tickerdesk/internal/domain"

	"github.com/mattn/go-runewidth"
)

// formatTable lays items out in aligned columns measured in terminal cells,
// so CJK titles line up with Latin ones.
func formatTable(items []domain.NewsItem, titleWidth int) string {
	if len(items) == 0 {
		return "no news items\n"
	}
	if titleWidth < 10 {
		titleWidth = 10
	}

	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, []string{"#", "TAG", "LANG", "SOURCE", "TIME", "TITLE"})
	for i, it := range items {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			string(it.Tag),
			string(it.Lang),
			runewidth.Truncate(it.Source, 20, "…"),
			it.Time,
			runewidth.Truncate(it.Title, titleWidth, "…"),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
