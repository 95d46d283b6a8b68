package ioutils

import (
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ErrInvalidJSON is returned by IndentJSON for payloads that do not parse.
var ErrInvalidJSON = errors.New("invalid json document")

// IndentJSON validates data as a JSON document and re-encodes it with one
// element per line using indent. Object key order and number literals are
// preserved. The result ends with a newline.
func IndentJSON(data []byte, indent string) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	// Width 0 keeps arrays expanded, one element per line.
	return pretty.PrettyOptions(data, &pretty.Options{
		Width:  0,
		Indent: indent,
	}), nil
}

// DescribeJSON returns a short description of the top-level value, such as
// "object with 3 keys" or "array of 10 items".
func DescribeJSON(data []byte) string {
	root := gjson.ParseBytes(data)
	switch {
	case root.IsObject():
		n := 0
		root.ForEach(func(_, _ gjson.Result) bool {
			n++
			return true
		})
		return plural(n, "object with %d key", "object with %d keys")
	case root.IsArray():
		return plural(len(root.Array()), "array of %d item", "array of %d items")
	}
	return root.Type.String()
}
