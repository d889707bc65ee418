package di

import (
	"reflect"
	"unsafe"
	"weak"
)

// weakRef 指针类型值的弱引用，被引用对象回收后 get 返回 false
type weakRef struct {
	typ reflect.Type
	ptr weak.Pointer[byte]
}

func makeWeakRef(v any) (weakRef, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
		return weakRef{}, false
	}
	return weakRef{typ: rv.Type(), ptr: weak.Make((*byte)(rv.UnsafePointer()))}, true
}

func (w weakRef) get() (any, bool) {
	p := w.ptr.Value()
	if p == nil {
		return nil, false
	}
	return reflect.NewAt(w.typ.Elem(), unsafe.Pointer(p)).Interface(), true
}

func (w weakRef) alive() bool {
	return w.ptr.Value() != nil
}

// refersTo 弱引用仍存活且指向 v。原对象回收后地址被复用时返回 false。
func (w weakRef) refersTo(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.Type() != w.typ {
		return false
	}
	p := w.ptr.Value()
	return p != nil && unsafe.Pointer(p) == rv.UnsafePointer()
}

// handle 作用域或实例的引用：指针类型弱持有，其余类型（通道、字符串、整数等）强持有
type handle struct {
	strong any
	ref    weakRef
	weak   bool
}

func newHandle(v any) handle {
	if ref, ok := makeWeakRef(v); ok {
		return handle{ref: ref, weak: true}
	}
	return handle{strong: v}
}

func (h handle) get() (any, bool) {
	if h.weak {
		return h.ref.get()
	}
	return h.strong, true
}

func (h handle) alive() bool {
	return !h.weak || h.ref.alive()
}

func (h handle) refersTo(v any) bool {
	if h.weak {
		return h.ref.refersTo(v)
	}
	return h.strong == v
}

// keyOf 指针按 (类型, 地址) 作为键，不持有对象本身
func keyOf(v any) any {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return identity{typ: rv.Type(), ptr: rv.Pointer()}
	}
	return v
}
