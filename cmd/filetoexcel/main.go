// Command filetoexcel writes a cumulative z-score workbook for a collected
// .bin or .csv sample file.
//
// Usage: filetoexcel <path-to-.bin-or-.csv>
package main

import (
	"fmt"
	"os"

	"github.com/Thiagojm/entropyd/config"
	"github.com/Thiagojm/entropyd/report"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: filetoexcel <path-to-.bin-or-.csv>")
		os.Exit(2)
	}
	out, err := report.Run(os.Args[1])
	if err != nil {
		config.Exitf("error: %v", err)
	}
	fmt.Println("wrote", out)
}
