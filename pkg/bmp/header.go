package bmp

const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	PixelOffset    = FileHeaderSize + InfoHeaderSize

	BitsPerPixel  = 24
	BytesPerPixel = BitsPerPixel / 8

	// 72 DPI expressed in pixels per metre.
	DefaultResolution = 2835
)

// FileHeader is the 14 byte BITMAPFILEHEADER.
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader
type FileHeader struct {
	Type      [2]byte // "BM"
	Size      uint32  // size of the whole file in bytes
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32 // offset of the pixel array
}

// InfoHeader is the 40 byte BITMAPINFOHEADER.
type InfoHeader struct {
	Size            uint32
	Width           int32
	Height          int32 // negative: rows are stored top-down
	Planes          uint16
	BitCount        uint16
	Compression     uint32 // 0 = BI_RGB
	SizeImage       uint32
	XPixelsPerM     int32
	YPixelsPerM     int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Pitch returns the length of a stored row, rounded up to a multiple of 4.
func Pitch(width int) int {
	return (width*BytesPerPixel + 3) / 4 * 4
}

// FileSize returns the size of an encoded width x height image.
func FileSize(width, height int) int {
	return PixelOffset + height*Pitch(width)
}

// NewHeaders returns the headers of a top-down 24-bit image.
func NewHeaders(width, height int) (FileHeader, InfoHeader) {
	sizeImage := uint32(height * Pitch(width))
	fh := FileHeader{
		Type:    [2]byte{'B', 'M'},
		Size:    PixelOffset + sizeImage,
		OffBits: PixelOffset,
	}
	ih := InfoHeader{
		Size:        InfoHeaderSize,
		Width:       int32(width),
		Height:      -int32(height),
		Planes:      1,
		BitCount:    BitsPerPixel,
		SizeImage:   sizeImage,
		XPixelsPerM: DefaultResolution,
		YPixelsPerM: DefaultResolution,
	}

	return fh, ih
}
