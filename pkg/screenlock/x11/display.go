package x11

import (
	"errors"
	"fmt"

	"github.com/MatthiasKunnen/screenlock/pkg/keysym"
	"github.com/MatthiasKunnen/screenlock/pkg/screenlock"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"
)

// ErrConnectionClosed is returned by NextEvent when the X server connection is gone.
var ErrConnectionClosed = errors.New("X server connection closed")

// Display is a connection to an X server.
type Display struct {
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	randr  bool
	keymap *keymap
	log    *zap.Logger
}

var _ screenlock.Display = (*Display)(nil)

// Connect opens the named display, $DISPLAY when name is empty.
func Connect(name string, log *zap.Logger) (*Display, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, fmt.Errorf("cannot open display: %w", err)
	}

	d := &Display{
		conn:  conn,
		setup: xproto.Setup(conn),
		log:   log,
	}

	if err := randr.Init(conn); err != nil {
		log.Info("RandR extension unavailable, screen changes will not be followed", zap.Error(err))
	} else {
		d.randr = true
	}

	d.keymap, err = loadKeymap(conn, d.setup)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return d, nil
}

// Conn returns the underlying connection.
func (d *Display) Conn() *xgb.Conn {
	return d.conn
}

func (d *Display) Close() error {
	d.conn.Close()
	return nil
}

func (d *Display) ScreenCount() int {
	return len(d.setup.Roots)
}

func (d *Display) Root(screen int) screenlock.WindowID {
	return screenlock.WindowID(d.setup.Roots[screen].Root)
}

func (d *Display) ScreenSize(screen int) (uint16, uint16) {
	s := d.setup.Roots[screen]
	return s.WidthInPixels, s.HeightInPixels
}

func (d *Display) AllocColor(screen int, name string) (uint32, error) {
	cmap := d.setup.Roots[screen].DefaultColormap

	if r, g, b, ok := parseHexColor(name); ok {
		reply, err := xproto.AllocColor(d.conn, cmap, r, g, b).Reply()
		if err != nil {
			return 0, fmt.Errorf("AllocColor %q: %w", name, err)
		}
		return reply.Pixel, nil
	}

	reply, err := xproto.AllocNamedColor(d.conn, cmap, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("AllocNamedColor %q: %w", name, err)
	}
	return reply.Pixel, nil
}

func (d *Display) CreateWindow(screen int, width, height uint16, background uint32) (screenlock.WindowID, error) {
	s := d.setup.Roots[screen]

	wid, err := xproto.NewWindowId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("allocating window id: %w", err)
	}

	err = xproto.CreateWindowChecked(
		d.conn,
		s.RootDepth,
		wid,
		s.Root,
		0, 0, width, height, 0,
		xproto.WindowClassInputOutput,
		s.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{background, 1},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("CreateWindow: %w", err)
	}

	return screenlock.WindowID(wid), nil
}

func (d *Display) SetBackgroundSurface(win screenlock.WindowID, s screenlock.Surface) error {
	return d.changeAttribute(win, xproto.CwBackPixmap, uint32(s))
}

func (d *Display) SetBackgroundPixel(win screenlock.WindowID, pixel uint32) error {
	return d.changeAttribute(win, xproto.CwBackPixel, pixel)
}

func (d *Display) changeAttribute(win screenlock.WindowID, mask uint32, value uint32) error {
	err := xproto.ChangeWindowAttributesChecked(d.conn, xproto.Window(win), mask, []uint32{value}).Check()
	if err != nil {
		return fmt.Errorf("ChangeWindowAttributes: %w", err)
	}
	return nil
}

// InvisibleCursor defines a cursor with an empty 8x8 mask on win.
func (d *Display) InvisibleCursor(win screenlock.WindowID) (screenlock.CursorID, error) {
	pixmap, err := xproto.NewPixmapId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("allocating pixmap id: %w", err)
	}
	err = xproto.CreatePixmapChecked(d.conn, 1, pixmap, xproto.Drawable(win), 8, 8).Check()
	if err != nil {
		return 0, fmt.Errorf("CreatePixmap: %w", err)
	}
	defer xproto.FreePixmap(d.conn, pixmap)

	// Pixmap contents are undefined until drawn.
	gc, err := xproto.NewGcontextId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("allocating graphics context id: %w", err)
	}
	err = xproto.CreateGCChecked(d.conn, gc, xproto.Drawable(pixmap), xproto.GcForeground, []uint32{0}).Check()
	if err != nil {
		return 0, fmt.Errorf("CreateGC: %w", err)
	}
	defer xproto.FreeGC(d.conn, gc)

	err = xproto.PolyFillRectangleChecked(d.conn, xproto.Drawable(pixmap), gc,
		[]xproto.Rectangle{{Width: 8, Height: 8}}).Check()
	if err != nil {
		return 0, fmt.Errorf("PolyFillRectangle: %w", err)
	}

	cursor, err := xproto.NewCursorId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("allocating cursor id: %w", err)
	}
	err = xproto.CreateCursorChecked(d.conn, cursor, pixmap, pixmap, 0, 0, 0, 0, 0, 0, 0, 0).Check()
	if err != nil {
		return 0, fmt.Errorf("CreateCursor: %w", err)
	}

	if err := d.changeAttribute(win, xproto.CwCursor, uint32(cursor)); err != nil {
		return 0, err
	}

	return screenlock.CursorID(cursor), nil
}

func (d *Display) GrabPointer(root screenlock.WindowID, cursor screenlock.CursorID) (screenlock.GrabStatus, error) {
	reply, err := xproto.GrabPointer(
		d.conn,
		false,
		xproto.Window(root),
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|xproto.EventMaskPointerMotion,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		xproto.WindowNone,
		xproto.Cursor(cursor),
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return 0, fmt.Errorf("GrabPointer: %w", err)
	}

	return grabStatus(reply.Status), nil
}

func (d *Display) GrabKeyboard(root screenlock.WindowID) (screenlock.GrabStatus, error) {
	reply, err := xproto.GrabKeyboard(
		d.conn,
		true,
		xproto.Window(root),
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply()
	if err != nil {
		return 0, fmt.Errorf("GrabKeyboard: %w", err)
	}

	return grabStatus(reply.Status), nil
}

func grabStatus(status byte) screenlock.GrabStatus {
	switch status {
	case xproto.GrabStatusSuccess:
		return screenlock.GrabSuccess
	case xproto.GrabStatusAlreadyGrabbed:
		return screenlock.GrabAlreadyGrabbed
	case xproto.GrabStatusInvalidTime:
		return screenlock.GrabInvalidTime
	case xproto.GrabStatusNotViewable:
		return screenlock.GrabNotViewable
	default:
		return screenlock.GrabFrozen
	}
}

// Ungrab releases the pointer and keyboard and stops the root window notifications selected
// by SelectSubstructure, which nobody reads while unlocked.
func (d *Display) Ungrab() error {
	err := errors.Join(
		xproto.UngrabPointerChecked(d.conn, xproto.TimeCurrentTime).Check(),
		xproto.UngrabKeyboardChecked(d.conn, xproto.TimeCurrentTime).Check(),
	)
	for screen := range d.setup.Roots {
		err = errors.Join(err, d.changeAttribute(d.Root(screen), xproto.CwEventMask, xproto.EventMaskNoEvent))
	}
	return err
}

func (d *Display) MapRaised(win screenlock.WindowID) error {
	if err := d.Raise(win); err != nil {
		return err
	}

	if err := xproto.MapWindowChecked(d.conn, xproto.Window(win)).Check(); err != nil {
		return fmt.Errorf("MapWindow: %w", err)
	}
	return nil
}

func (d *Display) Raise(win screenlock.WindowID) error {
	err := xproto.ConfigureWindowChecked(d.conn, xproto.Window(win),
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("raising window: %w", err)
	}
	return nil
}

func (d *Display) Resize(win screenlock.WindowID, width, height uint16) error {
	err := xproto.ConfigureWindowChecked(d.conn, xproto.Window(win),
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)}).Check()
	if err != nil {
		return fmt.Errorf("resizing window: %w", err)
	}
	return nil
}

func (d *Display) Clear(win screenlock.WindowID) error {
	if err := xproto.ClearAreaChecked(d.conn, false, xproto.Window(win), 0, 0, 0, 0).Check(); err != nil {
		return fmt.Errorf("ClearArea: %w", err)
	}
	return nil
}

func (d *Display) DestroyWindow(win screenlock.WindowID) error {
	if err := xproto.DestroyWindowChecked(d.conn, xproto.Window(win)).Check(); err != nil {
		return fmt.Errorf("DestroyWindow: %w", err)
	}
	return nil
}

func (d *Display) GeometryChangeSupported() bool {
	return d.randr
}

func (d *Display) SelectGeometryChange(win screenlock.WindowID) error {
	err := randr.SelectInputChecked(d.conn, xproto.Window(win), randr.NotifyMaskScreenChange).Check()
	if err != nil {
		return fmt.Errorf("RRSelectInput: %w", err)
	}
	return nil
}

func (d *Display) SelectSubstructure(root screenlock.WindowID) error {
	return d.changeAttribute(root, xproto.CwEventMask, xproto.EventMaskSubstructureNotify)
}

func (d *Display) LookupKey(ev screenlock.KeyPress, buf []byte) (keysym.Sym, int) {
	sym := d.keymap.lookup(xproto.Keycode(ev.Code), ev.State)
	return sym, keyText(sym, ev.State, buf)
}

// Forward sends the key press, unchanged, to the root window of the screen it occurred on.
func (d *Display) Forward(ev screenlock.KeyPress) error {
	native, ok := ev.Native.(xproto.KeyPressEvent)
	if !ok {
		return fmt.Errorf("cannot forward key press of type %T", ev.Native)
	}

	err := xproto.SendEventChecked(d.conn, true, native.Root, xproto.EventMaskKeyPress,
		string(native.Bytes())).Check()
	if err != nil {
		return fmt.Errorf("SendEvent: %w", err)
	}
	return nil
}

func (d *Display) Bell() error {
	if err := xproto.BellChecked(d.conn, 100).Check(); err != nil {
		return fmt.Errorf("Bell: %w", err)
	}
	return nil
}

// NextEvent waits for the next event. Protocol errors of unchecked requests are logged and
// skipped.
func (d *Display) NextEvent() (screenlock.Event, error) {
	for {
		ev, xerr := d.conn.WaitForEvent()
		switch {
		case ev == nil && xerr == nil:
			return nil, ErrConnectionClosed
		case xerr != nil:
			d.log.Warn("X protocol error", zap.String("error", xerr.Error()))
			continue
		}

		switch e := ev.(type) {
		case xproto.KeyPressEvent:
			return screenlock.KeyPress{Code: byte(e.Detail), State: e.State, Native: e}, nil
		case randr.ScreenChangeNotifyEvent:
			return screenlock.GeometryChange{
				Window:   screenlock.WindowID(e.RequestWindow),
				Width:    e.Width,
				Height:   e.Height,
				Rotation: screenlock.Rotation(e.Rotation),
			}, nil
		case xproto.MappingNotifyEvent:
			if e.Request != xproto.MappingPointer {
				if km, err := loadKeymap(d.conn, d.setup); err != nil {
					d.log.Warn("Failed to reload keyboard mapping", zap.Error(err))
				} else {
					d.keymap = km
				}
			}
		}

		return screenlock.OtherEvent{Native: ev}, nil
	}
}

// Sync waits until the server processed every request sent so far.
func (d *Display) Sync() error {
	if _, err := xproto.GetInputFocus(d.conn).Reply(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}
