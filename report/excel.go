package report

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the data and chart.
const SheetName = "Zscore"

var headers = []string{"", "ones", "cumulative_mean", "z_test"}

// WriteExcel saves in to path with a line chart of the z-score titled title.
func WriteExcel(path, title string, in *Input) error {
	if len(in.Rows) == 0 {
		return errors.New("no data to write")
	}
	f := excelize.NewFile()
	defer f.Close()

	if first := f.GetSheetName(0); first != SheetName {
		if err := f.SetSheetName(first, SheetName); err != nil {
			return err
		}
	}

	header := append([]string{in.LabelHeader}, headers[1:]...)
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for i, r := range in.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Label, r.Ones, r.CumulativeMean, r.ZScore}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	last := len(in.Rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$D$1", SheetName),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetName, last),
			Values:     fmt.Sprintf("%s!$D$2:$D$%d", SheetName, last),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{
			Text: fmt.Sprintf("Number of Samples - one sample every %d second(s)", in.IntervalSec),
		}}},
		YAxis: excelize.ChartAxis{
			Title:          []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - Sample Size = %d bits", in.BlockBits)}},
			MajorGridLines: true,
		},
	}
	if err := f.AddChart(SheetName, "F2", chart); err != nil {
		return err
	}
	return f.SaveAs(path)
}
