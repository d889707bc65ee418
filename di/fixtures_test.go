package di

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type Weapon interface {
	Hit(target string) string
}

type Warrior interface {
	Attack(target string) string
}

type Sword struct{ Name string }

func (s *Sword) Hit(target string) string { return "Chopped " + target + " clean in half" }

type Shuriken struct{ Name string }

func (s *Shuriken) Hit(target string) string { return "Pierced " + target + "'s armor" }

type Dagger struct{ Name string }

func (d *Dagger) Hit(target string) string { return "Stabbed " + target }

type Samurai struct {
	weapon Weapon
}

func NewSamurai(weapon Weapon) *Samurai {
	return &Samurai{weapon: weapon}
}

func (s *Samurai) Attack(target string) string { return s.weapon.Hit(target) }

// Ninja 通过字段注入武器
type Ninja struct {
	Weapon Weapon `di:""`
}

func (n *Ninja) Attack(target string) string { return n.Weapon.Hit(target) }

// Ronin 同时是武器和武士
type Ronin struct{ Name string }

func (r *Ronin) Hit(target string) string    { return "Ronin hits " + target }
func (r *Ronin) Attack(target string) string { return r.Hit(target) }

type Connection struct {
	mu       sync.Mutex
	disposed int
}

func (c *Connection) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed++
	return nil
}

func (c *Connection) Disposed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

type CycleA struct{ b *CycleB }
type CycleB struct{ a *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{b: b} }
func NewCycleB(a *CycleA) *CycleB { return &CycleB{a: a} }

type Foo struct {
	Bar *Bar `di:""`
}

type Bar struct {
	Foo *Foo `di:""`
}

type Greeter struct {
	greeting string
	weapon   Weapon
}

func NewGreeter(greeting string, weapon Weapon) *Greeter {
	return &Greeter{greeting: greeting, weapon: weapon}
}

type Scout struct{ weapon Weapon }

func NewScout(weapon Weapon) *Scout { return &Scout{weapon: weapon} }

type Archer struct{ arrows int }

func NewArcher(arrows int) *Archer { return &Archer{arrows: arrows} }

type Arsenal struct{ weapons []Weapon }

func NewArsenal(weapons []Weapon) *Arsenal { return &Arsenal{weapons: weapons} }

var errForge = errors.New("forge is cold")

type Broken struct{ Name string }

func NewBroken() (*Broken, error) { return nil, errForge }

func newTestRegistry(t *testing.T) *TypeRegistry {
	t.Helper()
	reg := NewTypeRegistry()
	require.NoError(t, reg.RegisterConstructor(NewSamurai, ParamNames("weapon")))
	require.NoError(t, reg.RegisterConstructor(NewCycleA))
	require.NoError(t, reg.RegisterConstructor(NewCycleB))
	require.NoError(t, reg.RegisterConstructor(NewGreeter, ParamNames("greeting", "weapon")))
	require.NoError(t, reg.RegisterConstructor(NewScout, ParamOptional(0)))
	require.NoError(t, reg.RegisterConstructor(NewArcher, ParamDefault(0, 12)))
	require.NoError(t, reg.RegisterConstructor(NewArsenal))
	require.NoError(t, reg.RegisterConstructor(NewBroken))
	return reg
}

func testSettings() Settings {
	s := DefaultSettings()
	s.CachePruningInterval = 0
	return s
}

// newTestKernel 关闭后台清理的内核，测试结束时释放
func newTestKernel(t *testing.T, opts ...KernelOption) *Kernel {
	t.Helper()
	all := append([]KernelOption{WithSettings(testSettings()), WithRegistry(newTestRegistry(t))}, opts...)
	k, err := NewKernel(all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Dispose() })
	return k
}
