// Package storage keeps captured stills in a directory, numbered in capture
// order, with a JSON sidecar per image and an info.json index.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	xbmp "golang.org/x/image/bmp"

	"stillcam/pkg/bmp"
	"stillcam/pkg/camera"
	"stillcam/pkg/clock"
)

var (
	ErrNotFound    = errors.New("image not found")
	ErrInvalidName = errors.New("invalid image name")
)

type ImagesInfo struct {
	MaxNumber   int    `json:"maxNumber"`
	LatestImage string `json:"latestImage"`

	UpdateAt time.Time `json:"updateAt"`
}

// Metadata is written next to each image.
type Metadata struct {
	File       string    `json:"file"`
	Device     string    `json:"device"`
	Format     string    `json:"format"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Stride     int       `json:"stride"`
	Sequence   uint32    `json:"sequence"`
	CapturedAt time.Time `json:"capturedAt"`
	Size       int64     `json:"size"`
}

type File struct {
	Name    string    `json:"name"`
	Size    string    `json:"size"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	ModTime time.Time `json:"modTime"`
}

type Storage struct {
	lock  sync.Mutex
	dir   string
	clock clock.Clock
}

func New(dir string, c clock.Clock) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir can not be empty")
	}
	if c == nil {
		c = clock.System{}
	}
	s := &Storage{dir: dir, clock: c}
	if err := os.MkdirAll(s.imageDir(), DefaultDirPerm); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.infoPath()); os.IsNotExist(err) {
		if err = s.dumpInfo(&ImagesInfo{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// Save writes f as the next numbered BMP plus its metadata sidecar.
func (s *Storage) Save(f *camera.Frame, device string) (*Metadata, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	info, err := s.loadInfo()
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%d%s", DefaultImagePrefix, info.MaxNumber, DefaultImageExt)
	p := s.ImagePath(name)
	if err = bmp.Save(p, f.Data, f.Width, f.Height, f.Stride); err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		File:       name,
		Device:     device,
		Format:     f.Format.String(),
		Width:      f.Width,
		Height:     f.Height,
		Stride:     f.Stride,
		Sequence:   f.Sequence,
		CapturedAt: s.clock.Now(),
		Size:       st.Size(),
	}
	if err = WriteMetadata(MetadataPath(p), meta); err != nil {
		return nil, err
	}

	info.MaxNumber++
	info.LatestImage = name
	if err = s.dumpInfo(info); err != nil {
		return nil, err
	}

	return meta, nil
}

func (s *Storage) LatestImageName() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	info, err := s.loadInfo()
	if err != nil {
		return "", err
	}
	if info.LatestImage == "" {
		return "", ErrNotFound
	}

	return info.LatestImage, nil
}

// Metadata reads the sidecar of the named image.
func (s *Storage) Metadata(name string) (*Metadata, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(MetadataPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	meta := &Metadata{}
	if err = json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata err: %w", err)
	}

	return meta, nil
}

// List returns the stored images, oldest first.
func (s *Storage) List() ([]File, error) {
	entries, err := os.ReadDir(s.imageDir())
	if err != nil {
		return nil, err
	}
	res := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DefaultImageExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		file := File{
			Name:    e.Name(),
			Size:    humanize.Bytes(uint64(info.Size())),
			ModTime: info.ModTime(),
		}
		if w, h, err := probe(s.ImagePath(e.Name())); err == nil {
			file.Width, file.Height = w, h
		}
		res = append(res, file)
	}
	sort.Slice(res, func(i, j int) bool {
		return imageNumber(res[i].Name) < imageNumber(res[j].Name)
	})

	return res, nil
}

// Path resolves name inside the image directory, rejecting anything that is
// not a plain file name.
func (s *Storage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p := s.ImagePath(name)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}

	return p, nil
}

func (s *Storage) ImagePath(name string) string {
	return filepath.Join(s.imageDir(), name)
}

func (s *Storage) imageDir() string {
	return filepath.Join(s.dir, DefaultImagesDir)
}

func (s *Storage) infoPath() string {
	return filepath.Join(s.imageDir(), DefaultInfoFile)
}

func (s *Storage) loadInfo() (*ImagesInfo, error) {
	data, err := os.ReadFile(s.infoPath())
	if err != nil {
		return nil, fmt.Errorf("read image info err: %w", err)
	}
	info := &ImagesInfo{}
	if err = json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("unmarshal image info err: %w", err)
	}

	return info, nil
}

func (s *Storage) dumpInfo(info *ImagesInfo) error {
	info.UpdateAt = s.clock.Now()
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	return os.WriteFile(s.infoPath(), data, DefaultFilePerm)
}

// MetadataPath is the sidecar path for an image path.
func MetadataPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + DefaultMetaExt
}

func WriteMetadata(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, DefaultFilePerm)
}

func probe(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := xbmp.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}

	return cfg.Width, cfg.Height, nil
}

func imageNumber(name string) int {
	var n int
	_, _ = fmt.Sscanf(strings.TrimPrefix(name, DefaultImagePrefix+"-"), "%d", &n)
	return n
}
