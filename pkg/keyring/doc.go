// Package keyring locks collections of an [org.freedesktop.Secret] provider.
// Programs that provide this API include Gnome Keyring, KDE Wallet, and keepassxc.
//
// [org.freedesktop.Secret]: https://specifications.freedesktop.org/secret-service-spec/latest/
package keyring
