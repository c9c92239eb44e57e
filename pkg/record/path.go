package record

import "strings"

// PathSeparator joins the segments of a field path ("sleep.score").
const PathSeparator = "."

// JoinPath appends key to prefix, which may be empty.
func JoinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + PathSeparator + key
}

// Lookup walks path segment by segment. The result is absent when a segment is
// missing or an intermediate value is not an object (null included). A leaf that
// exists and holds null is present.
func (v Value) Lookup(path string) (Value, bool) {
	current := v
	for _, seg := range strings.Split(path, PathSeparator) {
		obj, ok := current.AsObject()
		if !ok {
			return Value{}, false
		}
		next, ok := obj.Get(seg)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// SetPath stores v at path, creating intermediate objects as needed. An
// intermediate value that is not an object is replaced by an empty one.
func (o *Object) SetPath(path string, v Value) {
	segs := strings.Split(path, PathSeparator)
	current := o
	for _, seg := range segs[:len(segs)-1] {
		next, ok := current.Get(seg)
		child, isObj := next.AsObject()
		if !ok || !isObj {
			child = NewObject()
			current.Set(seg, ObjectOf(child))
		}
		current = child
	}
	current.Set(segs[len(segs)-1], v)
}

// ExtractFields lists the dot-delimited path of every leaf of v, depth-first in key
// order. Only objects are descended into; arrays are leaves. A non-object v has no
// fields.
func ExtractFields(v Value) []string {
	var fields []string
	obj, ok := v.AsObject()
	if !ok {
		return fields
	}
	var walk func(o *Object, prefix string)
	walk = func(o *Object, prefix string) {
		o.Each(func(key string, item Value) bool {
			path := JoinPath(prefix, key)
			if child, ok := item.AsObject(); ok {
				walk(child, path)
			} else {
				fields = append(fields, path)
			}
			return true
		})
	}
	walk(obj, "")
	return fields
}
