package di

import (
	"fmt"
	"reflect"
)

// Token 命名绑定的类型化令牌，用于区分相同类型的不同依赖
//
// 示例：
//
//	var PrimaryDSN = di.NewToken[string]("primary-dsn")
//
//	// 绑定
//	PrimaryDSN.Bind(k, di.ToConstant("postgres://..."))
//
//	// 获取
//	dsn, _ := PrimaryDSN.Get(k)
type Token[T any] struct {
	name string
	typ  reflect.Type
}

// NewToken 创建一个新的 Token
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{
		name: name,
		typ:  TypeOf[T](),
	}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Type 返回 Token 的类型
func (t *Token[T]) Type() reflect.Type {
	return t.typ
}

// Bind 以令牌名称绑定
func (t *Token[T]) Bind(root BindingRoot, opts ...BindingOption) error {
	return root.Bind(t.typ, append(opts, Named(t.name))...)
}

// Get 解析令牌对应的实例
func (t *Token[T]) Get(root ResolutionRoot, params ...Parameter) (T, error) {
	return GetNamed[T](root, t.name, params...)
}

// Tag 结构体字段标签，例如 `di:"primary-dsn"`
func (t *Token[T]) Tag() string {
	return fmt.Sprintf(`di:%q`, t.name)
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", t.typ, t.name)
}

// TypeOf 获取类型 T 的 reflect.Type
//
//	weaponType := di.TypeOf[Weapon]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
