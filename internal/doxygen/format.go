// Package doxygen assembles doxygen configuration streams and drives the
// doxygen binary with the stream on stdin.
package doxygen

import "fmt"

// Format identifies a doxygen output format doxbuilder knows how to configure.
type Format string

const (
	FormatHTML Format = "html"
	FormatRTF  Format = "rtf"
)

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHTML, FormatRTF:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown documentation format: %s (supported: html, rtf)", s)
	}
}
