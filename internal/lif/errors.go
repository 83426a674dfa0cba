package lif

import "fmt"

// TimeFormatError reports a digit run in a time token that is not numeric.
type TimeFormatError struct {
	Token string
	Part  string // minutes, seconds or fraction
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("error parsing time %q: bad %s", e.Token, e.Part)
}

// ParseError is fatal to the parse of one file. Line is 1-based; 0 means the
// file as a whole.
type ParseError struct {
	File  string
	Line  int
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line == 0 {
		return fmt.Sprintf("failed to parse %s, %s", e.File, msg)
	}
	return fmt.Sprintf("failed to parse %s, line %d: %s", e.File, e.Line, msg)
}

func (e *ParseError) Unwrap() error { return e.Err }
