// Package report turns collected sample files into a cumulative z-score
// workbook with a line chart.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Thiagojm/entropyd/naming"
)

// Row is one sample with its running statistics.
type Row struct {
	Label          string
	Ones           int
	CumulativeMean float64
	ZScore         float64
}

// Input is the parsed content of a sample file.
type Input struct {
	Rows        []Row
	BlockBits   int
	IntervalSec int
	// LabelHeader is "samples" for .bin inputs and "time" for .csv inputs.
	LabelHeader string
}

// Load reads a .bin or .csv sample file named by the naming convention.
func Load(path string) (*Input, error) {
	interval, err := naming.Interval(path)
	if err != nil {
		return nil, err
	}
	blockBits, err := naming.Bits(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	in := &Input{BlockBits: blockBits, IntervalSec: interval}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".bin":
		in.LabelHeader = "samples"
		in.Rows, err = ReadBin(f, blockBits)
	case ".csv":
		in.LabelHeader = "time"
		in.Rows, err = ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return in, nil
}

// ReadBin splits r into blocks of blockBits bits and counts the ones in each.
// A short final block is kept.
func ReadBin(r io.Reader, blockBits int) ([]Row, error) {
	if blockBits <= 0 || blockBits%8 != 0 {
		return nil, errors.New("block size must be a positive multiple of 8 bits for .bin files")
	}
	br := bufio.NewReader(r)
	buf := make([]byte, blockBits/8)
	var rows []Row
	for block := 1; ; block++ {
		n, err := io.ReadFull(br, buf)
		if n > 0 {
			ones := 0
			for _, b := range buf[:n] {
				ones += bits.OnesCount8(b)
			}
			rows = append(rows, Row{Label: strconv.Itoa(block), Ones: ones})
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadCSV reads headerless "timestamp,ones" records. Records with fewer than
// two fields are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		onesStr := strings.TrimSpace(rec[1])
		ones, err := strconv.Atoi(onesStr)
		if err != nil {
			return nil, fmt.Errorf("invalid ones value %q: %w", onesStr, err)
		}
		rows = append(rows, Row{Label: timeLabel(strings.TrimSpace(rec[0])), Ones: ones})
	}
	return rows, nil
}

var timeLayouts = []string{
	"20060102T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"15:04:05",
	"15:04",
}

// timeLabel renders s as HH:MM:SS, or returns it unchanged.
func timeLabel(s string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}

// ZTest fills in the cumulative mean and z-score of every row against a fair
// coin: mean blockBits/2, standard deviation sqrt(blockBits/4).
func ZTest(rows []Row, blockBits int) {
	expectedMean := 0.5 * float64(blockBits)
	stdDev := math.Sqrt(float64(blockBits) * 0.25)
	if stdDev == 0 {
		return
	}
	sum := 0
	for i := range rows {
		n := float64(i + 1)
		sum += rows[i].Ones
		rows[i].CumulativeMean = float64(sum) / n
		rows[i].ZScore = (rows[i].CumulativeMean - expectedMean) / (stdDev / math.Sqrt(n))
	}
}

// Run loads path, computes the z-scores and writes the workbook next to it.
// It returns the workbook path.
func Run(path string) (string, error) {
	in, err := Load(path)
	if err != nil {
		return "", err
	}
	ZTest(in.Rows, in.BlockBits)
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
	if err := WriteExcel(out, filepath.Base(path), in); err != nil {
		return "", err
	}
	return out, nil
}
