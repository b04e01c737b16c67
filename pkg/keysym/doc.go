// Package keysym holds the X11 keysym values and classification helpers used when
// interpreting keyboard input, mirroring the ranges defined in [keysymdef.h] and
// [XF86keysym.h].
//
// [keysymdef.h]: https://gitlab.freedesktop.org/xorg/proto/xorgproto/-/blob/master/include/X11/keysymdef.h
// [XF86keysym.h]: https://gitlab.freedesktop.org/xorg/proto/xorgproto/-/blob/master/include/X11/XF86keysym.h
package keysym
