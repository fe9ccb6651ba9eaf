package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

var sheetHeaders = []string{
	"ID", "Name", "Description", "Price", "Category", "Images", "Stock", "Featured", "CreatedAt", "UpdatedAt",
}

const imageSeparator = "|"

// Export writes every live product to w as an .xlsx workbook.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range sheetHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(string(p.Category))
		row.AddCell().SetString(strings.Join(p.Images, imageSeparator))
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(strconv.FormatBool(p.Featured))
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Import reads a workbook laid out like Export. Rows with an ID update that
// product, rows without one create a product. Invalid rows are skipped and
// reported; valid rows are applied independently.
func (s *Service) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	book, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	if len(book.Sheets) == 0 || len(book.Sheets[0].Rows) < 2 {
		return &ImportResult{}, nil
	}

	result := &ImportResult{}
	sheet := book.Sheets[0]
	for i, row := range sheet.Rows[1:] {
		line := i + 2
		get := func(index int) string {
			if row != nil && index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}
		if get(1) == "" && get(0) == "" {
			continue
		}

		input, err := rowInput(get)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		if idStr := get(0); idStr != "" {
			id, err := strconv.ParseUint(idStr, 10, 64)
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid id %q", line, idStr))
				continue
			}
			_, err = s.Update(ctx, uint(id), ProductPatch{
				Name:        &input.Name,
				Description: &input.Description,
				Price:       &input.Price,
				Category:    &input.Category,
				Images:      input.Images,
				Stock:       &input.Stock,
				Featured:    &input.Featured,
			})
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
				continue
			}
			result.Updated++
			continue
		}

		if _, err := s.Create(ctx, input); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		result.Created++
	}

	s.logger.Info("Catalog import finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func rowInput(get func(int) string) (ProductInput, error) {
	price, err := decimal.NewFromString(get(3))
	if err != nil {
		return ProductInput{}, fmt.Errorf("invalid price %q", get(3))
	}
	stock, err := strconv.Atoi(get(6))
	if err != nil {
		return ProductInput{}, fmt.Errorf("invalid stock %q", get(6))
	}
	var images []string
	for _, img := range strings.Split(get(5), imageSeparator) {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	featured := false
	switch strings.ToLower(get(7)) {
	case "1", "true", "yes":
		featured = true
	}
	return ProductInput{
		Name:        get(1),
		Description: get(2),
		Price:       price,
		Category:    get(4),
		Images:      images,
		Stock:       stock,
		Featured:    featured,
	}, nil
}
