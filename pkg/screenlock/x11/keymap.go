package x11

import (
	"fmt"
	"unicode/utf8"

	"github.com/MatthiasKunnen/screenlock/pkg/keysym"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// keymap translates keycodes to keysyms following the rules of the core protocol,
// section 5 "Keyboards".
type keymap struct {
	minKeycode     xproto.Keycode
	perKeycode     int
	keysyms        []keysym.Sym
	numLockMask    uint16
	modeSwitchMask uint16
}

func loadKeymap(conn *xgb.Conn, setup *xproto.SetupInfo) (*keymap, error) {
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return nil, fmt.Errorf("GetKeyboardMapping: %w", err)
	}

	k := &keymap{
		minKeycode: setup.MinKeycode,
		perKeycode: int(mapping.KeysymsPerKeycode),
		keysyms:    make([]keysym.Sym, len(mapping.Keysyms)),
	}
	for i, s := range mapping.Keysyms {
		k.keysyms[i] = keysym.Sym(s)
	}

	modifiers, err := xproto.GetModifierMapping(conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("GetModifierMapping: %w", err)
	}
	k.setModifiers(modifiers.Keycodes, int(modifiers.KeycodesPerModifier))

	return k, nil
}

// setModifiers finds the modifier bits bound to Num_Lock and Mode_switch.
// keycodes holds 8 groups of perModifier keycodes, one group per modifier bit.
func (k *keymap) setModifiers(keycodes []xproto.Keycode, perModifier int) {
	for mod := range 8 {
		for _, code := range keycodes[mod*perModifier : (mod+1)*perModifier] {
			if code == 0 {
				continue
			}
			for _, s := range k.symbols(code) {
				switch s {
				case keysym.NumLock:
					k.numLockMask |= 1 << mod
				case keysym.ModeSwitch:
					k.modeSwitchMask |= 1 << mod
				}
			}
		}
	}
}

func (k *keymap) symbols(code xproto.Keycode) []keysym.Sym {
	if code < k.minKeycode || k.perKeycode == 0 {
		return nil
	}

	start := int(code-k.minKeycode) * k.perKeycode
	if start+k.perKeycode > len(k.keysyms) {
		return nil
	}
	return k.keysyms[start : start+k.perKeycode]
}

// lookup returns the keysym produced by code with the given modifier state.
func (k *keymap) lookup(code xproto.Keycode, state uint16) keysym.Sym {
	syms := k.symbols(code)

	group := syms
	if state&k.modeSwitchMask != 0 && len(syms) > 2 {
		group = syms[2:]
	}

	var first, second keysym.Sym
	switch {
	case len(group) == 0:
		return keysym.NoSymbol
	case len(group) == 1:
		first = group[0]
	default:
		first, second = group[0], group[1]
	}

	if second == keysym.NoSymbol {
		if lower, upper := keysym.Lower(first), keysym.Upper(first); lower != upper {
			first, second = lower, upper
		} else {
			second = first
		}
	}

	shift := state&xproto.ModMaskShift != 0
	capsLock := state&xproto.ModMaskLock != 0
	numLock := state&k.numLockMask != 0

	switch {
	case numLock && keysym.IsKeypadKey(second):
		if shift {
			return first
		}
		return second
	case !shift && !capsLock:
		return first
	case !shift && capsLock:
		return keysym.Upper(first)
	case shift && capsLock:
		return keysym.Upper(second)
	default:
		return second
	}
}

// keyText writes the UTF-8 text produced by sym to buf and returns its length.
// With Control held, characters are mapped to control codes like a terminal would.
func keyText(sym keysym.Sym, state uint16, buf []byte) int {
	r, ok := keysym.Rune(sym)
	if !ok {
		return 0
	}

	if state&xproto.ModMaskControl != 0 {
		switch {
		case (r >= '@' && r < 0x7f) || r == ' ':
			r &= 0x1f
		case r == '2':
			r = 0
		case r >= '3' && r <= '7':
			r -= '3' - 0x1b
		case r == '8':
			r = 0x7f
		case r == '/':
			r = '_' & 0x1f
		}
	}

	if len(buf) < utf8.RuneLen(r) {
		return 0
	}
	return utf8.EncodeRune(buf, r)
}
