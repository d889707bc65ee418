package di

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationErrorMatching(t *testing.T) {
	err := errCouldNotResolve(NewRequest(TypeOf[Weapon](), nil, nil, nil, false, true))

	assert.ErrorIs(t, err, ErrUnresolvable)
	assert.NotErrorIs(t, err, ErrAmbiguousBinding)
	assert.Equal(t, KindUnresolvable, KindOf(err))
	assert.Contains(t, err.Error(), "Error activating di.Weapon")
	assert.Contains(t, err.Error(), "1) Request for di.Weapon")

	wrapped := fmt.Errorf("startup: %w", err)
	assert.ErrorIs(t, wrapped, ErrUnresolvable)
	assert.Equal(t, KindUnresolvable, KindOf(wrapped))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))

	var ae *ActivationError
	require.True(t, errors.As(wrapped, &ae))
	assert.Same(t, err, ae)
}

func TestActivationErrorCause(t *testing.T) {
	cause := errors.New("disk full")
	err := newError(KindActivationFailed, "Error activating *di.Sword", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrActivationFailed)
	assert.Equal(t, "Error activating *di.Sword\nCaused by: disk full", err.Error())
	assert.Equal(t, "di: disposed", ErrDisposed.Error())
	assert.Equal(t, "circular dependency", KindCircularDependency.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestFormatBinding(t *testing.T) {
	bindings, err := newBindings([]reflect.Type{TypeOf[Weapon]()}, []BindingOption{
		To[*Shuriken](), WhenInjectedInto(TypeOf[*Samurai]()), Named("star"),
	})
	require.NoError(t, err)
	assert.Equal(t, `conditional binding from di.Weapon to *di.Shuriken (named "star")`, formatBinding(bindings[0]))

	bindings, err = newBindings([]reflect.Type{TypeOf[*Sword]()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "self-binding of *di.Sword", formatBinding(bindings[0]))

	bindings, err = newBindings([]reflect.Type{TypeOf[*Sword]()}, []BindingOption{ToConstant(&Sword{})})
	require.NoError(t, err)
	assert.Equal(t, "binding from *di.Sword to constant value", bindings[0].String())

	open, err := newOpenGenericBinding(GenericDefinitionOf[Repository[any]](), []BindingOption{
		ToOpenGeneric(GenericDefinitionOf[*memoryRepo[any]]()),
	})
	require.NoError(t, err)
	assert.Equal(t, "binding from di.Repository[...] to *di.memoryRepo[...]", formatBinding(open))
}
