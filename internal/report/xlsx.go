package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX saves tables as sheets of one workbook at path.
func WriteXLSX(path string, tables ...*Table) error {
	f := xlsx.NewFile()
	for _, t := range tables {
		sheet, err := f.AddSheet(t.Name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", t.Name)
		}
		addRow(sheet, t.Header)
		for _, cells := range t.Rows {
			addRow(sheet, cells)
		}
	}
	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
