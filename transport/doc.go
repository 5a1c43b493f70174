// Package transport opens the serial line to an RCX infrared tower.
//
// The tower runs at 2400 baud, 8 data bits, odd parity. Reads time out
// after a short byte timeout and then return no data, which callers take
// as the end of a received sequence. The device defaults to /dev/ttyS0 and
// can be changed with the RCX_IR environment variable.
package transport
