package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	jmespath "github.com/jmespath-community/go-jmespath"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// printer renders command results, optionally projected through a JMESPath
// expression.
type printer struct {
	w      io.Writer
	format string
	query  string
}

func (p *printer) validate() error {
	p.format = strings.ToLower(strings.TrimSpace(p.format))
	if p.format == "" {
		p.format = formatTable
	}
	if p.format != formatJSON && p.format != formatTable {
		return fmt.Errorf("unknown output format %q (valid options: json, table)", p.format)
	}
	if q := strings.TrimSpace(p.query); q != "" {
		if _, err := jmespath.Compile(q); err != nil {
			return fmt.Errorf("invalid --query: %w", err)
		}
	}
	return nil
}

// print normalises v through JSON so the query sees the wire field names.
func (p printer) print(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}

	if q := strings.TrimSpace(p.query); q != "" {
		generic, err = jmespath.Search(q, numbersToFloat(generic))
		if err != nil {
			return fmt.Errorf("apply --query: %w", err)
		}
	}

	if p.format == formatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(generic)
	}
	return writeTable(p.w, generic)
}

// numbersToFloat converts json.Number values, which JMESPath functions do
// not understand, into float64.
func numbersToFloat(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = numbersToFloat(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = numbersToFloat(t[k])
		}
		return t
	default:
		return v
	}
}

func writeTable(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			fmt.Fprintln(tw, "(none)")
			break
		}
		if cols := objectColumns(t); cols != nil {
			fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
			for _, item := range t {
				row := item.(map[string]any)
				cells := make([]string, len(cols))
				for i, col := range cols {
					cells[i] = cell(row[col])
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			break
		}
		for _, item := range t {
			fmt.Fprintln(tw, cell(item))
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s\n", k, cell(t[k]))
		}
	default:
		fmt.Fprintln(tw, cell(t))
	}
	return tw.Flush()
}

// objectColumns returns the sorted union of keys when every item is an
// object, nil otherwise.
func objectColumns(items []any) []string {
	var cols []string
	for _, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil
		}
		for k := range row {
			if !slices.Contains(cols, k) {
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
