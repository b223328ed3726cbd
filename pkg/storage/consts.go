package storage

const (
	DefaultImagesDir = "images"
	DefaultInfoFile  = "info.json"

	DefaultImagePrefix = "still"
	DefaultImageExt    = ".bmp"
	DefaultMetaExt     = ".json"

	DefaultFilePerm = 0644
	DefaultDirPerm  = 0755
)
