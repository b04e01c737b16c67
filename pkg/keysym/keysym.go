package keysym

import "unicode"

// Sym is an X11 keysym.
type Sym uint32

const (
	NoSymbol Sym = 0

	BackSpace Sym = 0xff08
	Tab       Sym = 0xff09
	Linefeed  Sym = 0xff0a
	Clear     Sym = 0xff0b
	Return    Sym = 0xff0d
	Escape    Sym = 0xff1b
	Delete    Sym = 0xffff

	Select Sym = 0xff60
	Break  Sym = 0xff6b

	ModeSwitch Sym = 0xff7e
	NumLock    Sym = 0xff7f

	KPSpace    Sym = 0xff80
	KPTab      Sym = 0xff89
	KPEnter    Sym = 0xff8d
	KPF1       Sym = 0xff91
	KPF4       Sym = 0xff94
	KPMultiply Sym = 0xffaa
	KP0        Sym = 0xffb0
	KP9        Sym = 0xffb9
	KPEqual    Sym = 0xffbd

	F1  Sym = 0xffbe
	F35 Sym = 0xffe0

	ShiftL Sym = 0xffe1
	HyperR Sym = 0xffee

	Key0 Sym = 0x0030
	Key9 Sym = 0x0039

	MonBrightnessUp   Sym = 0x1008ff02
	MonBrightnessDown Sym = 0x1008ff03
	AudioLowerVolume  Sym = 0x1008ff11
	AudioMute         Sym = 0x1008ff12
	AudioRaiseVolume  Sym = 0x1008ff13
	AudioPlay         Sym = 0x1008ff14
	AudioStop         Sym = 0x1008ff15
	AudioPrev         Sym = 0x1008ff16
	AudioNext         Sym = 0x1008ff17
	AudioMicMute      Sym = 0x1008ffb2

	privateKeypadFirst Sym = 0x11000000
	privateKeypadLast  Sym = 0x1100ffff

	unicodeOffset Sym = 0x01000000
	unicodeLast   Sym = 0x0110ffff
)

func IsKeypadKey(s Sym) bool { return s >= KPSpace && s <= KPEqual }

func IsPrivateKeypadKey(s Sym) bool { return s >= privateKeypadFirst && s <= privateKeypadLast }

func IsFunctionKey(s Sym) bool { return s >= F1 && s <= F35 }

func IsMiscFunctionKey(s Sym) bool { return s >= Select && s <= Break }

func IsPFKey(s Sym) bool { return s >= KPF1 && s <= KPF4 }

// IsMediaKey reports whether s controls audio playback or screen brightness.
// Such keys keep working while the screen is locked.
func IsMediaKey(s Sym) bool {
	switch s {
	case AudioPlay, AudioStop, AudioPrev, AudioNext,
		AudioRaiseVolume, AudioLowerVolume, AudioMute, AudioMicMute,
		MonBrightnessDown, MonBrightnessUp:
		return true
	}
	return false
}

// Normalize maps the keypad Enter and digit keys onto their main keyboard equivalents.
func Normalize(s Sym) Sym {
	switch {
	case s == KPEnter:
		return Return
	case s >= KP0 && s <= KP9:
		return s - KP0 + Key0
	}
	return s
}

// Ignored reports whether s is a key that never produces password input or commands:
// function, keypad, misc-function, PF and private keypad keys.
// Normalize should be applied first.
func Ignored(s Sym) bool {
	return IsFunctionKey(s) || IsKeypadKey(s) || IsMiscFunctionKey(s) ||
		IsPFKey(s) || IsPrivateKeypadKey(s)
}

// Rune returns the character produced by s, if any.
func Rune(s Sym) (rune, bool) {
	switch {
	case s >= 0x20 && s <= 0x7e, s >= 0xa0 && s <= 0xff:
		return rune(s), true
	case s >= unicodeOffset+0x100 && s <= unicodeLast:
		return rune(s - unicodeOffset), true
	case s == BackSpace, s == Tab, s == Linefeed, s == Clear, s == Return, s == Escape:
		return rune(s & 0x7f), true
	case s == Delete:
		return 0x7f, true
	case s == KPSpace:
		return ' ', true
	case s == KPTab:
		return '\t', true
	case s == KPEnter:
		return '\r', true
	case s >= KPMultiply && s <= KP9, s == KPEqual:
		return rune(s - 0xff80), true
	}
	return 0, false
}

// FromRune returns the keysym for r.
func FromRune(r rune) Sym {
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return Sym(r)
	}
	return unicodeOffset + Sym(r)
}

// Upper returns the upper case variant of s, or s when it has none.
func Upper(s Sym) Sym {
	return convertCase(s, unicode.ToUpper)
}

// Lower returns the lower case variant of s, or s when it has none.
func Lower(s Sym) Sym {
	return convertCase(s, unicode.ToLower)
}

func convertCase(s Sym, conv func(rune) rune) Sym {
	isLatin1 := s >= 0x20 && s <= 0xff
	isUnicode := s >= unicodeOffset+0x100 && s <= unicodeLast
	if !isLatin1 && !isUnicode {
		return s
	}

	r, _ := Rune(s)
	c := conv(r)
	if isLatin1 && c > 0xff {
		// No Latin-1 counterpart, e.g. ydiaeresis.
		return s
	}

	return FromRune(c)
}
