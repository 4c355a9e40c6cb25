package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadBinBlocks(t *testing.T) {
	data := []byte{0xFF, 0x00, 0x0F, 0x01, 0x80}
	rows, err := ReadBin(bytes.NewReader(data), 16)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []Row{{Label: "1", Ones: 8}, {Label: "2", Ones: 5}, {Label: "3", Ones: 1}}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d: got %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestReadBinRejectsOddBlock(t *testing.T) {
	if _, err := ReadBin(bytes.NewReader(nil), 12); err == nil {
		t.Fatal("expected error for a block that is not whole bytes")
	}
}

func TestReadCSV(t *testing.T) {
	in := "20240102T03:04:05,10\nbad\n12:00:01, 7\n"
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Label != "03:04:05" || rows[0].Ones != 10 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Label != "12:00:01" || rows[1].Ones != 7 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}

	if _, err := ReadCSV(strings.NewReader("x,notanumber\n")); err == nil {
		t.Fatal("expected error for non-numeric ones")
	}
}

func TestZTest(t *testing.T) {
	rows := []Row{{Ones: 6}, {Ones: 4}, {Ones: 8}}
	ZTest(rows, 8)

	// expected mean 4, std dev sqrt(2)
	wantMeans := []float64{6, 5, 6}
	for i, r := range rows {
		if r.CumulativeMean != wantMeans[i] {
			t.Fatalf("row %d: mean %v, want %v", i, r.CumulativeMean, wantMeans[i])
		}
		want := (wantMeans[i] - 4) / (math.Sqrt2 / math.Sqrt(float64(i+1)))
		if math.Abs(r.ZScore-want) > 1e-9 {
			t.Fatalf("row %d: z %v, want %v", i, r.ZScore, want)
		}
	}
}

func TestRunWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20240102T030405_pseudo_s16_i2.bin")
	if err := os.WriteFile(path, []byte{0xFF, 0xFF, 0x00, 0x00, 0xF0, 0x0F}, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, err := Run(path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if filepath.Ext(out) != ".xlsx" {
		t.Fatalf("unexpected output %q", out)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	for cell, want := range map[string]string{
		"A1": "samples",
		"B1": "ones",
		"D1": "z_test",
		"A2": "1",
		"B2": "16",
		"B3": "0",
		"B4": "8",
	} {
		got, err := f.GetCellValue(SheetName, cell)
		if err != nil {
			t.Fatalf("cell %s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("cell %s = %q, want %q", cell, got, want)
		}
	}
}

func TestLoadRejectsUnconventionalNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"samples.bin", "20240102T030405_pseudo_s16_i2.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte{1}, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error for %s", name)
		}
	}
}

func TestWriteExcelRequiresRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteExcel(path, "empty", &Input{LabelHeader: "time"}); err == nil {
		t.Fatal("expected error for empty input")
	}
}
