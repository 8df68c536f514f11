package hal

// panelPixel decodes one pixel as the panel receives it on the bus into
// the RGB triple stored in panel memory. Two bytes are a big-endian RGB565
// word; three bytes are 6 bits per channel in the high bits, stored as is.
func panelPixel(dst, src []byte) {
	if len(src) != 2 {
		copy(dst[:3], src)
		return
	}
	w := uint16(src[0])<<8 | uint16(src[1])
	r5, g6, b5 := uint8(w>>11), uint8(w>>5)&0x3f, uint8(w)&0x1f
	dst[0] = r5<<3 | r5>>2
	dst[1] = g6<<2 | g6>>4
	dst[2] = b5<<3 | b5>>2
}

// be565 encodes an RGB triple the way RGB565 pixels are sent to the panel.
func be565(r, g, b uint8) []byte {
	w := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	return []byte{byte(w >> 8), byte(w)}
}
