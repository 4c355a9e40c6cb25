// Command devices lists attached hardware entropy devices.
package main

import (
	"fmt"

	"github.com/Thiagojm/entropyd/bbusb"
	"github.com/Thiagojm/entropyd/truerng"
)

func main() {
	if port, err := truerng.FindPort(); err != nil {
		fmt.Printf("TrueRNG: %v\n", err)
	} else {
		fmt.Printf("TrueRNG: %s\n", port)
	}

	ok, devices, err := bbusb.IsBitBabblerConnected()
	switch {
	case err != nil:
		fmt.Printf("BitBabbler: %v\n", err)
	case !ok:
		fmt.Println("BitBabbler: not found (VID 0x0403 PID 0x7840)")
	}
	for i, d := range devices {
		fmt.Printf("BitBabbler %d:\n", i+1)
		if d.FriendlyName != "" {
			fmt.Printf("  Name:   %s\n", d.FriendlyName)
		}
		if d.SerialNumber != "" {
			fmt.Printf("  Serial: %s\n", d.SerialNumber)
		}
		if d.DevicePath != "" {
			fmt.Printf("  Path:   %s\n", d.DevicePath)
		}
	}
}
