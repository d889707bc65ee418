package di

import (
	"errors"
	"fmt"
)

// ErrorKind 激活错误的分类
type ErrorKind int

const (
	// KindUnresolvable 没有可用绑定，且无法隐式合成
	KindUnresolvable ErrorKind = iota + 1
	// KindAmbiguousBinding 多个同优先级绑定同时匹配
	KindAmbiguousBinding
	// KindAmbiguousConstructor 多个构造函数带有 inject 标记
	KindAmbiguousConstructor
	// KindCircularDependency 构造函数之间存在循环依赖
	KindCircularDependency
	// KindUselessConstructorArgument 构造参数没有匹配任何形参
	KindUselessConstructorArgument
	// KindUnresolvableProperty 属性值参数没有匹配任何可注入属性
	KindUnresolvableProperty
	// KindNullInjection 提供者返回 nil 且不允许 nil 注入
	KindNullInjection
	// KindInvalidBinding 绑定配置本身有问题（无法规划、类型不兼容等）
	KindInvalidBinding
	// KindActivationFailed 构造函数或生命周期钩子返回错误
	KindActivationFailed
	// KindDisposed 内核已释放
	KindDisposed
	// KindReadOnly 内核已构建为只读
	KindReadOnly
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnresolvable:
		return "unresolvable"
	case KindAmbiguousBinding:
		return "ambiguous binding"
	case KindAmbiguousConstructor:
		return "ambiguous constructor"
	case KindCircularDependency:
		return "circular dependency"
	case KindUselessConstructorArgument:
		return "useless constructor argument"
	case KindUnresolvableProperty:
		return "unresolvable property"
	case KindNullInjection:
		return "null injection"
	case KindInvalidBinding:
		return "invalid binding"
	case KindActivationFailed:
		return "activation failed"
	case KindDisposed:
		return "disposed"
	case KindReadOnly:
		return "read only"
	default:
		return "unknown"
	}
}

// ActivationError 解析或激活过程中的错误。
// Message 是带激活路径的可读描述，Kind 用于程序化判断。
type ActivationError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ActivationError) Error() string {
	if e.Message == "" {
		return "di: " + e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s\nCaused by: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ActivationError) Unwrap() error {
	return e.Cause
}

// Is 同类错误视为相等，哨兵错误（无 Message）匹配同 Kind 的任意错误
func (e *ActivationError) Is(target error) bool {
	t, ok := target.(*ActivationError)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// 哨兵错误，配合 errors.Is 使用
var (
	ErrUnresolvable               = &ActivationError{Kind: KindUnresolvable}
	ErrAmbiguousBinding           = &ActivationError{Kind: KindAmbiguousBinding}
	ErrAmbiguousConstructor       = &ActivationError{Kind: KindAmbiguousConstructor}
	ErrCircularDependency         = &ActivationError{Kind: KindCircularDependency}
	ErrUselessConstructorArgument = &ActivationError{Kind: KindUselessConstructorArgument}
	ErrUnresolvableProperty       = &ActivationError{Kind: KindUnresolvableProperty}
	ErrNullInjection              = &ActivationError{Kind: KindNullInjection}
	ErrInvalidBinding             = &ActivationError{Kind: KindInvalidBinding}
	ErrActivationFailed           = &ActivationError{Kind: KindActivationFailed}
	ErrDisposed                   = &ActivationError{Kind: KindDisposed}
	ErrReadOnly                   = &ActivationError{Kind: KindReadOnly}
)

// KindOf 返回错误链中第一个 ActivationError 的类别，没有则返回 0
func KindOf(err error) ErrorKind {
	var ae *ActivationError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

func newError(kind ErrorKind, msg string, cause error) *ActivationError {
	return &ActivationError{Kind: kind, Message: msg, Cause: cause}
}
