package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/ratiolens/internal/pipeline"
)

// Workbook renders tables into an XLSX workbook, one sheet per table named
// after it. Numeric cells are written as numbers; undefined ones stay blank.
func Workbook(tables []Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := t.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}

		header := make([]any, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return nil, err
		}
		for r, row := range t.Rows {
			cells := make([]any, 0, len(row.Keys)+len(row.Values))
			for _, k := range row.Keys {
				cells = append(cells, k)
			}
			for _, v := range row.Values {
				if n, ok := v.Get(); ok {
					cells = append(cells, n)
				} else {
					cells = append(cells, nil)
				}
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", r+2), &cells); err != nil {
				return nil, err
			}
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompanyWorkbook renders a company report as XLSX.
func CompanyWorkbook(rep *pipeline.CompanyReport) ([]byte, error) {
	return Workbook(CompanyTables(rep))
}

// SectorWorkbook renders a sector report as XLSX.
func SectorWorkbook(rep *pipeline.SectorReport) ([]byte, error) {
	return Workbook(SectorTables(rep))
}
