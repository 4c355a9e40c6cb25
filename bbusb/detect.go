//go:build cgo

package bbusb

import (
	"fmt"

	"github.com/google/gousb"
)

// IsBitBabblerConnected enumerates USB devices with the BitBabbler VID/PID.
func IsBitBabblerConnected() (bool, []DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ftdiVendorID) && desc.Product == gousb.ID(bbProductID)
	})
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()
	if err != nil && len(devs) == 0 {
		return false, nil, fmt.Errorf("enumerate usb: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devs))
	for _, d := range devs {
		info := DeviceInfo{DevicePath: fmt.Sprintf("usb:%03d:%03d", d.Desc.Bus, d.Desc.Address)}
		if name, err := d.Product(); err == nil {
			info.FriendlyName = name
		}
		if serial, err := d.SerialNumber(); err == nil {
			info.SerialNumber = serial
		}
		infos = append(infos, info)
	}
	return len(infos) > 0, infos, nil
}
