package di

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Repository[T any] interface {
	Kind() string
}

type memoryRepo[T any] struct {
	items []T
}

func (r *memoryRepo[T]) Kind() string {
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}

type User struct{ ID int }
type Order struct{ ID int }

// 测试从实例化类型解析泛型定义与类型实参
func TestGenericOf(t *testing.T) {
	def, args, ok := GenericOf(TypeOf[*memoryRepo[User]]())
	require.True(t, ok)
	assert.Equal(t, "memoryRepo", def.Name)
	assert.True(t, def.Pointer)
	assert.Equal(t, "github.com/gocrud/inject/di", def.PkgPath)
	require.Len(t, args, 1)
	assert.True(t, strings.HasSuffix(args[0], "di.User"))
	assert.Equal(t, "*di.memoryRepo[...]", def.String())

	def, _, ok = GenericOf(TypeOf[Repository[Order]]())
	require.True(t, ok)
	assert.Equal(t, GenericDefinitionOf[Repository[any]](), def)

	_, _, ok = GenericOf(TypeOf[*Sword]())
	assert.False(t, ok)
	_, _, ok = GenericOf(nil)
	assert.False(t, ok)
}

// 测试按顶层逗号切分类型实参
func TestSplitTypeArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"int", []string{"int"}},
		{"int,string", []string{"int", "string"}},
		{"map[string]int, pkg.Pair[a,b]", []string{"map[string]int", "pkg.Pair[a,b]"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitTypeArgs(tt.in), tt.in)
	}
}

func newGenericKernel(t *testing.T) *Kernel {
	t.Helper()
	reg := newTestRegistry(t)
	reg.RegisterType(TypeOf[*memoryRepo[User]](), TypeOf[*memoryRepo[Order]]())
	return newTestKernel(t, WithRegistry(reg))
}

// 测试开放泛型绑定按封闭类型分别实例化与缓存
func TestOpenGenericBinding(t *testing.T) {
	k := newGenericKernel(t)
	require.NoError(t, k.BindOpenGeneric(
		GenericDefinitionOf[Repository[any]](),
		ToOpenGeneric(GenericDefinitionOf[*memoryRepo[any]]()),
		InSingletonScope(),
	))

	users, err := Get[Repository[User]](k)
	require.NoError(t, err)
	assert.IsType(t, &memoryRepo[User]{}, users)
	assert.Equal(t, "User", users.Kind())

	orders, err := Get[Repository[Order]](k)
	require.NoError(t, err)
	assert.IsType(t, &memoryRepo[Order]{}, orders)

	again, err := Get[Repository[User]](k)
	require.NoError(t, err)
	assert.Same(t, users, again)

	bindings := k.GetBindings(TypeOf[Repository[User]]())
	require.Len(t, bindings, 1)
	assert.True(t, bindings[0].IsOpenGeneric())
	assert.Equal(t, TypeOf[Repository[User]](), bindings[0].Service)
}

// 测试封闭绑定优先于开放泛型绑定
func TestClosedBindingBeatsOpenGeneric(t *testing.T) {
	k := newGenericKernel(t)
	require.NoError(t, k.BindOpenGeneric(
		GenericDefinitionOf[Repository[any]](),
		ToOpenGeneric(GenericDefinitionOf[*memoryRepo[any]]()),
	))
	custom := &memoryRepo[User]{items: []User{{ID: 7}}}
	require.NoError(t, Bind[Repository[User]](k, ToConstant(custom)))

	users, err := Get[Repository[User]](k)
	require.NoError(t, err)
	assert.Same(t, custom, users)

	all, err := GetAll[Repository[User]](k)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// 测试开放泛型自绑定与缺少登记的实例化类型
func TestOpenGenericSelfAndMissingInstantiation(t *testing.T) {
	k := newGenericKernel(t)
	require.NoError(t, k.BindOpenGeneric(GenericDefinitionOf[*memoryRepo[any]](), InSingletonScope()))

	repo, err := Get[*memoryRepo[Order]](k)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "Order", repo.Kind())

	k2 := newGenericKernel(t)
	require.NoError(t, k2.BindOpenGeneric(
		GenericDefinitionOf[Repository[any]](),
		ToOpenGeneric(GenericDefinitionOf[*memoryRepo[any]]()),
	))
	_, err = Get[Repository[int]](k2)
	assert.ErrorIs(t, err, ErrInvalidBinding)

	assert.ErrorIs(t, k2.BindOpenGeneric(GenericDefinition{}), ErrInvalidBinding)
}
