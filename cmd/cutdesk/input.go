package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// readJSON decodes a request body from path, or from stdin when path is "-".
func (c *cli) readJSON(path string, v any) error {
	var r io.Reader
	switch path {
	case "":
		return fmt.Errorf("--file is required (use - for stdin)")
	case "-":
		r = c.in
	default:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func parseServiceID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid service id %q", s)
	}
	return id, nil
}
