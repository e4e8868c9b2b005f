package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/storefront/internal/service"
	"github.com/tealeg/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []string{"ID", "Name", "Description", "Price", "Category", "Manufacturer", "Photo"}

func writeProductsXLSX(out io.Writer, rows []service.ExportRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, title := range exportHeader {
		header.AddCell().SetString(title)
	}

	for _, row := range rows {
		p := row.Product
		photo := ""
		if p.Photo != nil {
			photo = *p.Photo
		}

		r := sheet.AddRow()
		r.AddCell().SetInt64(p.ID)
		r.AddCell().SetString(p.Name)
		r.AddCell().SetString(p.Description)
		r.AddCell().SetInt64(p.Price)
		r.AddCell().SetString(row.Category)
		r.AddCell().SetString(row.Manufacturer)
		r.AddCell().SetString(photo)
	}

	return file.Write(out)
}

// ExportProductsHandler отдаёт каталог файлом xlsx (только сотрудники)
func ExportProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ExportProductsHandler"
		logger := log.With(slog.String("op", op))

		rows, err := catalog.ExportProducts(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}

		filename := fmt.Sprintf("products-%s.xlsx", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := writeProductsXLSX(w, rows); err != nil {
			// заголовки уже отправлены, остаётся только залогировать
			logger.Error("failed to write xlsx", slog.Any("error", err))
		}
	}
}
