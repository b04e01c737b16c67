package screenlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/MatthiasKunnen/screenlock/pkg/credential"
	"github.com/MatthiasKunnen/screenlock/pkg/keysym"
)

var errNoMoreEvents = errors.New("no more events")

type grabResult struct {
	status GrabStatus
	err    error
}

// fakeDisplay is an in-memory Display. Keycodes are keysyms truncated to a byte; see key.
type fakeDisplay struct {
	screens  int
	geometry bool

	// pointer and keyboard results are consumed per call, the last one repeats.
	pointer  []grabResult
	keyboard []grabResult

	events []Event

	nextWindow    WindowID
	pointerGrabs  int
	keyboardGrabs int
	bells         int
	forwarded     []KeyPress
	mapped        []WindowID
	raised        []WindowID
	cleared       []WindowID
	destroyed     []WindowID
	ungrabbed     int
	background    map[WindowID]uint32
	surfaces      map[WindowID]Surface
	resized       map[WindowID][2]uint16
	geometrySubs  []WindowID
	substructure  []WindowID
	nextEventCall int
}

func newFakeDisplay(screens int) *fakeDisplay {
	return &fakeDisplay{
		screens:    screens,
		geometry:   true,
		nextWindow: 100,
		background: map[WindowID]uint32{},
		surfaces:   map[WindowID]Surface{},
		resized:    map[WindowID][2]uint16{},
	}
}

func next(results []grabResult, call int) grabResult {
	if len(results) == 0 {
		return grabResult{status: GrabSuccess}
	}
	if call >= len(results) {
		return results[len(results)-1]
	}
	return results[call]
}

func (f *fakeDisplay) ScreenCount() int { return f.screens }

func (f *fakeDisplay) Root(screen int) WindowID { return WindowID(10 + screen) }

func (f *fakeDisplay) ScreenSize(int) (uint16, uint16) { return 1920, 1080 }

var fakeColors = map[string]uint32{"black": 0x000000, "#005577": 0x005577, "#cc3333": 0xcc3333}

func (f *fakeDisplay) AllocColor(_ int, name string) (uint32, error) {
	pixel, ok := fakeColors[name]
	if !ok {
		return 0, fmt.Errorf("unknown color %q", name)
	}
	return pixel, nil
}

func (f *fakeDisplay) CreateWindow(_ int, _, _ uint16, background uint32) (WindowID, error) {
	f.nextWindow++
	f.background[f.nextWindow] = background
	return f.nextWindow, nil
}

func (f *fakeDisplay) SetBackgroundSurface(win WindowID, s Surface) error {
	f.surfaces[win] = s
	return nil
}

func (f *fakeDisplay) SetBackgroundPixel(win WindowID, pixel uint32) error {
	f.background[win] = pixel
	delete(f.surfaces, win)
	return nil
}

func (f *fakeDisplay) InvisibleCursor(WindowID) (CursorID, error) { return 7, nil }

func (f *fakeDisplay) GrabPointer(WindowID, CursorID) (GrabStatus, error) {
	r := next(f.pointer, f.pointerGrabs)
	f.pointerGrabs++
	return r.status, r.err
}

func (f *fakeDisplay) GrabKeyboard(WindowID) (GrabStatus, error) {
	r := next(f.keyboard, f.keyboardGrabs)
	f.keyboardGrabs++
	return r.status, r.err
}

func (f *fakeDisplay) Ungrab() error {
	f.ungrabbed++
	return nil
}

func (f *fakeDisplay) MapRaised(win WindowID) error {
	f.mapped = append(f.mapped, win)
	return nil
}

func (f *fakeDisplay) Raise(win WindowID) error {
	f.raised = append(f.raised, win)
	return nil
}

func (f *fakeDisplay) Resize(win WindowID, width, height uint16) error {
	f.resized[win] = [2]uint16{width, height}
	return nil
}

func (f *fakeDisplay) Clear(win WindowID) error {
	f.cleared = append(f.cleared, win)
	return nil
}

func (f *fakeDisplay) DestroyWindow(win WindowID) error {
	f.destroyed = append(f.destroyed, win)
	return nil
}

func (f *fakeDisplay) GeometryChangeSupported() bool { return f.geometry }

func (f *fakeDisplay) SelectGeometryChange(win WindowID) error {
	f.geometrySubs = append(f.geometrySubs, win)
	return nil
}

func (f *fakeDisplay) SelectSubstructure(root WindowID) error {
	f.substructure = append(f.substructure, root)
	return nil
}

func (f *fakeDisplay) LookupKey(ev KeyPress, buf []byte) (keysym.Sym, int) {
	sym := ev.Native.(keysym.Sym)
	r, ok := keysym.Rune(sym)
	if !ok {
		return sym, 0
	}
	return sym, copy(buf, string(r))
}

func (f *fakeDisplay) Forward(ev KeyPress) error {
	f.forwarded = append(f.forwarded, ev)
	return nil
}

func (f *fakeDisplay) Bell() error {
	f.bells++
	return nil
}

func (f *fakeDisplay) NextEvent() (Event, error) {
	f.nextEventCall++
	if len(f.events) == 0 {
		return nil, errNoMoreEvents
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *fakeDisplay) Sync() error { return nil }

// key returns the key press event producing sym.
func key(sym keysym.Sym) KeyPress {
	return KeyPress{Code: uint8(sym), Native: sym}
}

// typeText appends a key press per character of s.
func (f *fakeDisplay) typeText(s string) {
	for _, r := range s {
		f.events = append(f.events, key(keysym.FromRune(r)))
	}
}

func (f *fakeDisplay) press(syms ...keysym.Sym) {
	for _, s := range syms {
		f.events = append(f.events, key(s))
	}
}

// plainVerifier compares against the hash verbatim.
type plainVerifier struct {
	secret string
	err    error
	calls  int
}

func (v *plainVerifier) Verify(candidate []byte, _ credential.Credential) (bool, error) {
	v.calls++
	if v.err != nil {
		return false, v.err
	}
	return string(candidate) == v.secret, nil
}

// fakeProvider resolves to a fixed credential and verifies with plainVerifier.
type fakeProvider struct {
	plainVerifier
	resolveErr error
	resolved   int
}

func (p *fakeProvider) Resolve() (credential.Credential, error) {
	p.resolved++
	if p.resolveErr != nil {
		return credential.Credential{}, p.resolveErr
	}
	return credential.New("reference"), nil
}

type recordingSleep struct {
	total time.Duration
	calls int
}

func (s *recordingSleep) sleep(d time.Duration) {
	s.calls++
	s.total += d
}

var testColors = [NumStates]string{"black", "#005577", "#cc3333"}
