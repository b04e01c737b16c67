package x11

import (
	"fmt"

	"github.com/MatthiasKunnen/screenlock/pkg/screenlock"
	"github.com/jezek/xgb/xproto"
)

// putImageHeader is the size of a PutImage request without its data.
const putImageHeader = 24

// Pixelated supplies a pixelated screenshot of each screen as its lock background.
type Pixelated struct {
	display   *Display
	blockSize int
	pixmaps   map[int]xproto.Pixmap
}

var _ screenlock.BackgroundProvider = (*Pixelated)(nil)

// NewPixelated returns a provider averaging blocks of blockSize by blockSize pixels.
func NewPixelated(d *Display, blockSize int) *Pixelated {
	return &Pixelated{
		display:   d,
		blockSize: blockSize,
		pixmaps:   make(map[int]xproto.Pixmap),
	}
}

// Background captures the root window of screen and renders the pixelated copy into a new
// pixmap. The pixmap of an earlier capture of the same screen is freed.
func (p *Pixelated) Background(screen int) (screenlock.Surface, error) {
	conn := p.display.conn
	s := p.display.setup.Roots[screen]
	width, height := s.WidthInPixels, s.HeightInPixels

	bitsPerPixel := 0
	for _, f := range p.display.setup.PixmapFormats {
		if f.Depth == s.RootDepth {
			bitsPerPixel = int(f.BitsPerPixel)
		}
	}
	if bitsPerPixel != 32 {
		return screenlock.NoSurface, fmt.Errorf("unsupported pixel format: depth %d, %d bits per pixel",
			s.RootDepth, bitsPerPixel)
	}

	img, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(s.Root),
		0, 0, width, height, 0xffffffff).Reply()
	if err != nil {
		return screenlock.NoSurface, fmt.Errorf("capturing screen %d: %w", screen, err)
	}
	if height == 0 || len(img.Data) < int(width)*4*int(height) {
		return screenlock.NoSurface, fmt.Errorf("capturing screen %d: short image", screen)
	}
	stride := len(img.Data) / int(height)

	pixelate(img.Data, int(width), int(height), stride, p.blockSize)

	pixmap, err := xproto.NewPixmapId(conn)
	if err != nil {
		return screenlock.NoSurface, fmt.Errorf("allocating pixmap id: %w", err)
	}
	err = xproto.CreatePixmapChecked(conn, s.RootDepth, pixmap, xproto.Drawable(s.Root), width, height).Check()
	if err != nil {
		return screenlock.NoSurface, fmt.Errorf("CreatePixmap: %w", err)
	}

	if err := p.draw(pixmap, s.RootDepth, width, height, stride, img.Data); err != nil {
		xproto.FreePixmap(conn, pixmap)
		return screenlock.NoSurface, err
	}

	if old, ok := p.pixmaps[screen]; ok {
		xproto.FreePixmap(conn, old)
	}
	p.pixmaps[screen] = pixmap

	return screenlock.Surface(pixmap), nil
}

// draw uploads data in horizontal strips that fit the maximum request length.
func (p *Pixelated) draw(pixmap xproto.Pixmap, depth byte, width, height uint16, stride int, data []byte) error {
	conn := p.display.conn

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return fmt.Errorf("allocating graphics context id: %w", err)
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(pixmap), 0, nil).Check(); err != nil {
		return fmt.Errorf("CreateGC: %w", err)
	}
	defer xproto.FreeGC(conn, gc)

	maxBytes := int(p.display.setup.MaximumRequestLength)*4 - putImageHeader
	rows := max(1, maxBytes/stride)

	for y := 0; y < int(height); y += rows {
		n := min(rows, int(height)-y)
		err := xproto.PutImageChecked(conn, xproto.ImageFormatZPixmap, xproto.Drawable(pixmap), gc,
			width, uint16(n), 0, int16(y), 0, depth, data[y*stride:(y+n)*stride]).Check()
		if err != nil {
			return fmt.Errorf("PutImage: %w", err)
		}
	}

	return nil
}

// pixelate replaces every block of size by size pixels of a 32 bits per pixel image with
// the average of its color channels. The fourth byte of each pixel is left alone.
func pixelate(data []byte, width, height, stride, size int) {
	if size <= 1 {
		return
	}

	for y := 0; y < height; y += size {
		blockHeight := min(size, height-y)
		for x := 0; x < width; x += size {
			blockWidth := min(size, width-x)

			var sum [3]int
			for j := range blockHeight {
				row := (y+j)*stride + x*4
				for i := range blockWidth {
					px := data[row+i*4:]
					sum[0] += int(px[0])
					sum[1] += int(px[1])
					sum[2] += int(px[2])
				}
			}

			area := blockWidth * blockHeight
			avg := [3]byte{byte(sum[0] / area), byte(sum[1] / area), byte(sum[2] / area)}

			for j := range blockHeight {
				row := (y+j)*stride + x*4
				for i := range blockWidth {
					copy(data[row+i*4:row+i*4+3], avg[:])
				}
			}
		}
	}
}
