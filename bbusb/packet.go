package bbusb

const ftdiStatusLen = 2 // every IN packet starts with two modem status bytes

// unpackPackets copies the payload of each maxPacket sized chunk of raw into
// dst, skipping the status bytes, and returns the bytes copied.
func unpackPackets(dst, raw []byte, maxPacket int) int {
	if maxPacket <= ftdiStatusLen {
		maxPacket = len(raw)
	}
	copied := 0
	for off := 0; off < len(raw) && copied < len(dst); off += maxPacket {
		end := min(off+maxPacket, len(raw))
		if end-off <= ftdiStatusLen {
			break
		}
		copied += copy(dst[copied:], raw[off+ftdiStatusLen:end])
	}
	return copied
}

func roundUpToMaxPacket(n, max int) int {
	if max <= 0 || n%max == 0 {
		return n
	}
	return (n/max + 1) * max
}
