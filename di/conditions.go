package di

import "reflect"

// When 自定义条件
func When(condition func(*Request) bool) BindingOption {
	return func(c *BindingConfiguration) {
		c.Condition = condition
	}
}

// WhenInjectedInto 注入到给定类型（或实现给定接口的类型）时生效
func WhenInjectedInto(parents ...reflect.Type) BindingOption {
	return When(func(r *Request) bool {
		if r.Target == nil {
			return false
		}
		for _, parent := range parents {
			if injectedInto(r.Target.Owner, parent) {
				return true
			}
		}
		return false
	})
}

// WhenInjectedExactlyInto 仅当正在构造的类型恰好是给定类型时生效
func WhenInjectedExactlyInto(parents ...reflect.Type) BindingOption {
	return When(func(r *Request) bool {
		if r.Target == nil {
			return false
		}
		for _, parent := range parents {
			if r.Target.Owner == parent {
				return true
			}
		}
		return false
	})
}

func injectedInto(owner, parent reflect.Type) bool {
	if owner == nil || parent == nil {
		return false
	}
	if owner == parent {
		return true
	}
	if parent.Kind() == reflect.Interface {
		return owner.Implements(parent)
	}
	// 允许用结构体类型匹配其指针
	return owner.Kind() == reflect.Ptr && owner.Elem() == parent
}

// WhenParentNamed 父绑定名称匹配时生效
func WhenParentNamed(name string) BindingOption {
	return When(func(r *Request) bool {
		return r.ParentContext != nil && r.ParentContext.Binding.Metadata.Name == name
	})
}

// WhenAnyAncestorNamed 任意祖先绑定名称匹配时生效
func WhenAnyAncestorNamed(name string) BindingOption {
	return WhenAnyAncestorMatches(ancestorNamed(name))
}

// WhenNoAncestorNamed 没有祖先绑定名称匹配时生效
func WhenNoAncestorNamed(name string) BindingOption {
	return WhenNoAncestorMatches(ancestorNamed(name))
}

// WhenAnyAncestorMatches 任意祖先上下文满足谓词时生效
func WhenAnyAncestorMatches(predicate func(*Context) bool) BindingOption {
	return When(func(r *Request) bool {
		return anyAncestor(r, predicate)
	})
}

// WhenNoAncestorMatches 没有祖先上下文满足谓词时生效
func WhenNoAncestorMatches(predicate func(*Context) bool) BindingOption {
	return When(func(r *Request) bool {
		return !anyAncestor(r, predicate)
	})
}

// WhenTargetHas 注入点带有标记时生效
func WhenTargetHas(marker string) BindingOption {
	return When(func(r *Request) bool {
		return r.Target != nil && r.Target.HasMarker(marker)
	})
}

func ancestorNamed(name string) func(*Context) bool {
	return func(ctx *Context) bool {
		return ctx.Binding != nil && ctx.Binding.Metadata.Name == name
	}
}

func anyAncestor(r *Request, predicate func(*Context) bool) bool {
	for ctx := r.ParentContext; ctx != nil; ctx = ctx.Request.ParentContext {
		if predicate(ctx) {
			return true
		}
	}
	return false
}
