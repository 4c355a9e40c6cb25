// Package truerng detects and reads a TrueRNG hardware noise generator
// exposed as a USB serial port, and wraps it as an entropy source.
package truerng
