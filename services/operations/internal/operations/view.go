package operations

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"
)

const maxColumns = 8

// Stat is a labelled scalar of a dashboard.
type Stat struct {
	Label string
	Value string
}

// Table renders a list of records.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Section groups the members of a nested object.
type Section struct {
	Title  string
	Stats  []Stat
	Tables []Table
}

// View is the HTML friendly shape of a JSON dashboard.
type View struct {
	Stats    []Stat
	Tables   []Table
	Sections []Section
}

func (v View) Empty() bool {
	return len(v.Stats) == 0 && len(v.Tables) == 0 && len(v.Sections) == 0
}

var (
	hiddenKeys   = []string{"id", "_id", "password", "token"}
	leadingKeys  = []string{"number", "name", "title", "status", "delivery_date", "delivery_time"}
	timeLayouts  = []string{time.RFC3339Nano, time.RFC3339}
	displayTime  = "2006-01-02 15:04"
	emptyMessage = "-"
)

// BuildView turns the decoded data of a dashboard response into a View.
func BuildView(data interface{}) View {
	var v View
	switch d := data.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(d) {
			addMember(&v.Stats, &v.Tables, key, d[key], func(s Section) {
				v.Sections = append(v.Sections, s)
			})
		}
	case []interface{}:
		if t, ok := buildTable("", d); ok {
			v.Tables = append(v.Tables, t)
		} else {
			v.Stats = append(v.Stats, Stat{Label: "Values", Value: formatValue(d)})
		}
	case nil:
	default:
		v.Stats = append(v.Stats, Stat{Label: "Value", Value: formatValue(d)})
	}
	return v
}

func addMember(stats *[]Stat, tables *[]Table, key string, val interface{}, section func(Section)) {
	if slices.Contains(hiddenKeys, key) {
		return
	}
	switch m := val.(type) {
	case []interface{}:
		if t, ok := buildTable(Label(key), m); ok {
			*tables = append(*tables, t)
			return
		}
		*stats = append(*stats, Stat{Label: Label(key), Value: formatValue(m)})
	case map[string]interface{}:
		if section == nil {
			for _, k := range sortedKeys(m) {
				if isScalar(m[k]) && !slices.Contains(hiddenKeys, k) {
					*stats = append(*stats, Stat{Label: Label(key) + " / " + Label(k), Value: formatValue(m[k])})
				}
			}
			return
		}
		s := Section{Title: Label(key)}
		for _, k := range sortedKeys(m) {
			addMember(&s.Stats, &s.Tables, k, m[k], nil)
		}
		section(s)
	default:
		*stats = append(*stats, Stat{Label: Label(key), Value: formatValue(val)})
	}
}

// buildTable succeeds when every element is an object. An empty list is a table without rows.
func buildTable(title string, list []interface{}) (Table, bool) {
	records := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]interface{})
		if !ok {
			return Table{}, false
		}
		records = append(records, rec)
	}

	keys := columnKeys(records)
	t := Table{Title: title}
	for _, k := range keys {
		t.Columns = append(t.Columns, Label(k))
	}
	for _, rec := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = formatValue(rec[k])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

func columnKeys(records []map[string]interface{}) []string {
	seen := map[string]bool{}
	for _, rec := range records {
		for k, v := range rec {
			if slices.Contains(hiddenKeys, k) {
				continue
			}
			if _, nested := v.(map[string]interface{}); nested && !hasLabelField(v) {
				continue
			}
			seen[k] = true
		}
	}

	var keys []string
	for _, k := range leadingKeys {
		if seen[k] {
			keys = append(keys, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	if len(keys) > maxColumns {
		keys = keys[:maxColumns]
	}
	return keys
}

func hasLabelField(v interface{}) bool {
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	_, name := m["name"].(string)
	_, number := m["number"].(string)
	return name || number
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return false
	}
	return true
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return emptyMessage
	case string:
		if val == "" {
			return emptyMessage
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t.Format(displayTime)
			}
		}
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case []interface{}:
		if len(val) == 0 {
			return emptyMessage
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if !isScalar(item) {
				return fmt.Sprintf("%d entries", len(val))
			}
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		if s, ok := val["number"].(string); ok && s != "" {
			return s
		}
		if s, ok := val["name"].(string); ok && s != "" {
			return s
		}
		return emptyMessage
	default:
		return fmt.Sprint(val)
	}
}

// Label turns a JSON member name into a heading.
func Label(key string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(key))
	if len(words) == 0 {
		return key
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
