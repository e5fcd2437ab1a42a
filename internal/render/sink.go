package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
)

// TextureSink принимает пиксели для отображения
type TextureSink interface {
	UploadFullBuffer(pixels []uint32)
	UploadRegion(x, y, w, h int, pixels []uint32)
}

// NopSink отбрасывает все загрузки
type NopSink struct{}

func (NopSink) UploadFullBuffer([]uint32)                 {}
func (NopSink) UploadRegion(int, int, int, int, []uint32) {}

// ImageSink зеркалирует загрузки в image.RGBA для отладки.
// Старший байт пикселя игнорируется: у поверхности там высота, у подземелья 0xff.
type ImageSink struct {
	mu      sync.Mutex
	img     *image.RGBA
	uploads int
}

// NewImageSink создаёт приёмник под текстуру стороны size
func NewImageSink(size int) *ImageSink {
	return &ImageSink{img: image.NewRGBA(image.Rect(0, 0, size, size))}
}

func (s *ImageSink) UploadFullBuffer(pixels []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.img.Rect.Dx()
	for i, p := range pixels {
		s.img.SetRGBA(i%size, i/size, toRGBA(p))
	}
	s.uploads++
}

func (s *ImageSink) UploadRegion(x, y, w, h int, pixels []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			s.img.SetRGBA(x+i, y+j, toRGBA(pixels[j*w+i]))
		}
	}
	s.uploads++
}

// Uploads возвращает количество принятых загрузок
func (s *ImageSink) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// At возвращает цвет пикселя
func (s *ImageSink) At(x, y int) color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.RGBAAt(x, y)
}

// WritePNG кодирует текущее изображение в PNG
func (s *ImageSink) WritePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return png.Encode(w, s.img)
}

// SavePNG записывает изображение в файл
func (s *ImageSink) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("создание %s: %w", path, err)
	}
	if err := s.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("кодирование %s: %w", path, err)
	}
	return f.Close()
}

func toRGBA(p uint32) color.RGBA {
	return color.RGBA{R: uint8(p >> 16), G: uint8(p >> 8), B: uint8(p), A: 0xff}
}
