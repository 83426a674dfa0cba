package lif

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"lifsheet/internal/model"
)

// Decode turns raw file bytes into text. Timing software writes Latin-1, so
// anything that is not valid UTF-8 is decoded as ISO-8859-1.
func Decode(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ParseBytes decodes b and parses it.
func ParseBytes(b []byte, name string) (*model.RaceEvent, error) {
	raw, err := Decode(b)
	if err != nil {
		return nil, &ParseError{File: name, Msg: "could not decode file", Err: err}
	}
	return Parse(raw, name)
}
