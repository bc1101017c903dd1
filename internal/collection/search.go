package collection

import (
	"reflect"
	"strconv"
	"strings"
)

// Filter returns the records whose searchable text contains the query,
// case-insensitively. Matching walks the string form of every exported
// field, including the fields of embedded or pointed-to structs, so a book
// matches on its author's name or its rating count as well as its own
// title.
func Filter[T any](records []T, query string) []T {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return records
	}
	var out []T
	for _, record := range records {
		if Matches(record, query) {
			out = append(out, record)
		}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// Matches reports whether the string form of any field of the record
// contains the already-lowercased query.
func Matches(record interface{}, query string) bool {
	for _, field := range FieldStrings(record) {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// FieldStrings collects the string form of the exported fields of a
// struct, recursing through nested and pointed-to structs. Numbers and
// booleans are formatted; zero values are skipped so an unset identifier
// does not match numeric queries. Non-struct inputs yield their own value
// when they have one.
func FieldStrings(record interface{}) []string {
	var out []string
	collectStrings(reflect.ValueOf(record), &out, 0)
	return out
}

// collectStrings caps recursion depth to keep cyclic references harmless.
const maxDepth = 4

func collectStrings(v reflect.Value, out *[]string, depth int) {
	if depth > maxDepth || !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			collectStrings(v.Elem(), out, depth)
		}
	case reflect.String:
		if s := v.String(); s != "" {
			*out = append(*out, s)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := v.Int(); n != 0 {
			*out = append(*out, strconv.FormatInt(n, 10))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n := v.Uint(); n != 0 {
			*out = append(*out, strconv.FormatUint(n, 10))
		}
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); f != 0 {
			*out = append(*out, strconv.FormatFloat(f, 'f', -1, 64))
		}
	case reflect.Bool:
		if v.Bool() {
			*out = append(*out, "true")
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			collectStrings(v.Field(i), out, depth+1)
		}
	}
}
