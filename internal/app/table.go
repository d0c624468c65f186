package app

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"product-scraper/internal/scraper"
	"product-scraper/internal/storage"
)

// RenderDataset печатает датасет таблицей в w
func RenderDataset(w io.Writer, dataset scraper.Dataset) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, 0, len(storage.Columns)+1)
	header = append(header, "#")
	for _, c := range storage.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for i, rec := range dataset {
		t.AppendRow(table.Row{i + 1, rec.Title, rec.Price, rec.Rating})
	}
	t.AppendFooter(table.Row{"", "Total", len(dataset), ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
