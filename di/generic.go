package di

import (
	"reflect"
	"strings"
)

// GenericDefinition 开放泛型定义，例如 Repository[T] 的 {pkg, "Repository", ptr}。
// Go 运行时无法从定义构造实例化类型，所以实现类型需要在 TypeRegistry 中登记。
type GenericDefinition struct {
	PkgPath string
	Name    string
	Pointer bool
}

// IsZero 是否为空定义
func (d GenericDefinition) IsZero() bool {
	return d.Name == ""
}

func (d GenericDefinition) String() string {
	s := d.Name + "[...]"
	if d.PkgPath != "" {
		s = d.PkgPath[strings.LastIndexByte(d.PkgPath, '/')+1:] + "." + s
	}
	if d.Pointer {
		s = "*" + s
	}
	return s
}

// GenericOf 解析实例化泛型类型，返回其定义和类型实参。
// 非泛型类型返回 ok=false。
func GenericOf(t reflect.Type) (def GenericDefinition, args []string, ok bool) {
	if t == nil {
		return GenericDefinition{}, nil, false
	}
	ptr := false
	if t.Kind() == reflect.Ptr {
		ptr = true
		t = t.Elem()
	}
	name := t.Name()
	i := strings.IndexByte(name, '[')
	if i <= 0 || !strings.HasSuffix(name, "]") {
		return GenericDefinition{}, nil, false
	}
	def = GenericDefinition{PkgPath: t.PkgPath(), Name: name[:i], Pointer: ptr}
	return def, splitTypeArgs(name[i+1 : len(name)-1]), true
}

// GenericDefinitionOf 返回 T 的开放泛型定义，T 可以用任意类型实参实例化
func GenericDefinitionOf[T any]() GenericDefinition {
	def, _, _ := GenericOf(TypeOf[T]())
	return def
}

// splitTypeArgs 按顶层逗号切分类型实参，嵌套的 [] 内的逗号不切分
func splitTypeArgs(s string) []string {
	var args []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}
