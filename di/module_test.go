package di

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dojoModule struct {
	unloaded bool
}

func (m *dojoModule) Name() string { return "dojo" }

func (m *dojoModule) Load(k *ModuleKernel) error {
	return Bind[Warrior](k, To[*Samurai]())
}

func (m *dojoModule) Unload(*ModuleKernel) error {
	m.unloaded = true
	return nil
}

func (m *dojoModule) Requires() []string { return []string{"weapons"} }

func weaponsModule() Module {
	return NewModule("weapons", func(k *ModuleKernel) error {
		return Bind[Weapon](k, To[*Sword]())
	})
}

// 测试模块加载、查询与卸载
func TestModuleLoadUnload(t *testing.T) {
	k := newTestKernel(t)
	dojo := &dojoModule{}
	require.NoError(t, k.Load(weaponsModule(), dojo))

	assert.True(t, k.HasModule("weapons"))
	assert.Equal(t, []string{"weapons", "dojo"}, k.GetModules())

	w, err := Get[Warrior](k)
	require.NoError(t, err)
	assert.Equal(t, "Chopped bandits clean in half", w.Attack("bandits"))

	require.NoError(t, k.Unload("dojo"))
	assert.True(t, dojo.unloaded)
	assert.False(t, k.HasModule("dojo"))
	_, err = Get[Warrior](k)
	assert.ErrorIs(t, err, ErrUnresolvable)

	_, err = Get[Weapon](k)
	assert.NoError(t, err)

	assert.Error(t, k.Unload("dojo"))
}

// 测试模块名称必须唯一
func TestModuleDuplicateName(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, k.Load(weaponsModule()))

	err := k.Load(weaponsModule())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "weapons" is already loaded`)

	err = k.Load(NewModule("", func(*ModuleKernel) error { return nil }))
	assert.Error(t, err)
}

// 测试模块依赖在加载后校验
func TestModuleRequires(t *testing.T) {
	k := newTestKernel(t)
	err := k.Load(&dojoModule{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "dojo" requires module "weapons"`)

	k2 := newTestKernel(t, WithModules(&dojoModule{}, weaponsModule()))
	assert.True(t, k2.HasModule("dojo"))
}

// 测试模块加载失败时回滚已声明的绑定
func TestModuleLoadFailureRollsBack(t *testing.T) {
	boom := errors.New("boom")
	k := newTestKernel(t)
	err := k.Load(NewModule("faulty", func(m *ModuleKernel) error {
		if err := Bind[Weapon](m, To[*Sword]()); err != nil {
			return err
		}
		assert.Len(t, m.Bindings(), 1)
		assert.Equal(t, "faulty", m.Module().Name())
		return boom
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, k.HasModule("faulty"))

	_, err = Get[Weapon](k)
	assert.ErrorIs(t, err, ErrUnresolvable)
}

// 测试模块内的 Rebind 只影响模块记录的绑定
func TestModuleRebind(t *testing.T) {
	k := newTestKernel(t)
	require.NoError(t, k.Load(NewModule("armory", func(m *ModuleKernel) error {
		if err := Bind[Weapon](m, To[*Sword]()); err != nil {
			return err
		}
		if err := m.Rebind(TypeOf[Weapon](), To[*Dagger]()); err != nil {
			return err
		}
		assert.Len(t, m.Bindings(), 1)
		assert.Same(t, k, m.Kernel())
		return nil
	})))

	w, err := Get[Weapon](k)
	require.NoError(t, err)
	assert.IsType(t, &Dagger{}, w)
}
