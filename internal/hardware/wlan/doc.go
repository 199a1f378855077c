// Package wlan implements the node's wireless radio on top of NetworkManager.
//
// Every operation shells out to nmcli with a bounded timeout. Connect asks
// NetworkManager to start association and returns without waiting; callers
// poll IsConnected, which reads the device state in terse mode.
//
// The passphrase is passed to nmcli as an argument and never appears in
// returned errors.
package wlan
