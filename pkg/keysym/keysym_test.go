package keysym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Return, Normalize(KPEnter))
	assert.Equal(t, Key0, Normalize(KP0))
	assert.Equal(t, Sym('7'), Normalize(KP0+7))
	assert.Equal(t, Key9, Normalize(KP9))
	assert.Equal(t, Sym('a'), Normalize('a'))
	assert.Equal(t, KPMultiply, Normalize(KPMultiply))
}

func TestIgnored(t *testing.T) {
	for _, s := range []Sym{F1, F35, KPMultiply, KPF1, KPF4, Select, Break, 0xff63, 0x11000042} {
		assert.Truef(t, Ignored(s), "%#x should be ignored", uint32(s))
	}

	for _, s := range []Sym{'a', ' ', Return, Escape, BackSpace, Normalize(KP0 + 3), AudioMute, ShiftL} {
		assert.Falsef(t, Ignored(s), "%#x should not be ignored", uint32(s))
	}
}

func TestIsMediaKey(t *testing.T) {
	assert.True(t, IsMediaKey(AudioRaiseVolume))
	assert.True(t, IsMediaKey(MonBrightnessDown))
	assert.True(t, IsMediaKey(AudioMicMute))
	assert.False(t, IsMediaKey(Return))
	assert.False(t, IsMediaKey(0x1008ff2a))
}

func TestRune(t *testing.T) {
	cases := map[Sym]rune{
		'a':            'a',
		'~':            '~',
		0xe9:           'é',
		0x010020ac:     '€',
		Return:         '\r',
		BackSpace:      '\b',
		Escape:         0x1b,
		Delete:         0x7f,
		KPEnter:        '\r',
		KP0 + 5:        '5',
		KPMultiply + 1: '+',
	}
	for s, want := range cases {
		got, ok := Rune(s)
		assert.Truef(t, ok, "%#x", uint32(s))
		assert.Equalf(t, want, got, "%#x", uint32(s))
	}

	_, ok := Rune(F1)
	assert.False(t, ok)
	_, ok = Rune(ShiftL)
	assert.False(t, ok)
}

func TestCase(t *testing.T) {
	assert.Equal(t, Sym('A'), Upper('a'))
	assert.Equal(t, Sym('a'), Lower('A'))
	assert.Equal(t, Sym(0xc9), Upper(0xe9))
	assert.Equal(t, Sym('1'), Upper('1'))
	assert.Equal(t, Sym(0xff), Upper(0xff))
	assert.Equal(t, FromRune('Ж'), Upper(FromRune('ж')))
	assert.Equal(t, Return, Upper(Return))
}
