// Package reflector resolves and caches the names used to label and route
// message payloads.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the cache; the set of payload types in a program is
// small, so hitting it only resets the cache.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo describes the type of a payload.
type TypeInfo struct {
	// Name is "pkg/path.TypeName" for named types, the builtin name for
	// predeclared types and the type literal otherwise. Pointers are
	// named after their element type.
	Name string
	// Type is the exact dynamic type, pointers included.
	Type reflect.Type
}

// TypeInfoOf returns TypeInfo for the dynamic type of x. A nil x yields
// the name "nil".
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for t. Safe for concurrent use.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{Name: "nil"}
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{Name: nameOf(t), Type: t}

	muCache.Lock()
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	muCache.Unlock()

	return ti
}

func nameOf(t reflect.Type) string {
	e := t
	if e.Kind() == reflect.Pointer {
		e = e.Elem()
	}
	switch {
	case e.Name() == "":
		return e.String()
	case e.PkgPath() == "":
		return e.Name()
	default:
		return e.PkgPath() + "." + e.Name()
	}
}
