package domain

import (
	"strconv"
	"strings"
)

// missingTokens are the upstream sentinels for "not measured". Matched
// exactly after trimming whitespace.
var missingTokens = map[string]struct{}{
	"":    {},
	"--":  {},
	"×":   {},
	"///": {},
}

// annotationStripper removes the flag symbols JMA appends to measured
// values: "]" (incomplete period), ")" (quasi-normal value), "#" (suspect
// or estimated value).
var annotationStripper = strings.NewReplacer("]", "", ")", "", "#", "")

// ParseValue converts one raw table cell into a measurement. It returns nil
// for missing-data sentinels and for anything that does not survive numeric
// conversion after annotation stripping. It never fails: a malformed cell
// must not take down the surrounding row.
func ParseValue(text string) *float64 {
	text = strings.TrimSpace(text)
	if _, ok := missingTokens[text]; ok {
		return nil
	}

	text = annotationStripper.Replace(text)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseCount is ParseValue for integer columns (vehicle counts). Values with
// a fractional part are rejected as malformed.
func ParseCount(text string) *int64 {
	text = strings.TrimSpace(text)
	if _, ok := missingTokens[text]; ok {
		return nil
	}

	text = annotationStripper.Replace(text)
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
