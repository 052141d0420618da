// Package redishash flattens redis-tagged structs into HSET field maps.
package redishash

import (
	"reflect"
	"strings"
)

// Fields returns the exported fields of the struct v keyed by their redis
// tag, or by field name when untagged. Fields tagged "-" and nil pointers
// are left out; other pointers are dereferenced.
func Fields(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return map[string]any{}
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return map[string]any{}
	}

	rt := rv.Type()
	fields := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get("redis"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = sf.Name
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		fields[name] = fv.Interface()
	}

	return fields
}
