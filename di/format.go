package di

import (
	"fmt"
	"reflect"
	"strings"
)

func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// formatBinding 例如 "conditional binding from di.IWeapon to *di.Shuriken"
func formatBinding(b *Binding) string {
	var sb strings.Builder
	if b.IsConditional() {
		sb.WriteString("conditional ")
	}
	if b.IsImplicit {
		sb.WriteString("implicit ")
	}
	switch b.Target {
	case BindSelf:
		sb.WriteString("self-binding of ")
		sb.WriteString(b.serviceName())
	case BindConstant:
		fmt.Fprintf(&sb, "binding from %s to constant value", b.serviceName())
	case BindMethod:
		fmt.Fprintf(&sb, "binding from %s to method", b.serviceName())
	case BindProvider:
		fmt.Fprintf(&sb, "binding from %s to provider", b.serviceName())
	default:
		target := formatType(b.Implementation)
		if !b.OpenImplementation.IsZero() {
			target = b.OpenImplementation.String()
		}
		fmt.Fprintf(&sb, "binding from %s to %s", b.serviceName(), target)
	}
	if b.Metadata.Name != "" {
		fmt.Fprintf(&sb, " (named %q)", b.Metadata.Name)
	}
	return strings.TrimSpace(sb.String())
}

// formatRequest 描述请求本身
func formatRequest(r *Request) string {
	if r.Target == nil {
		return "Request for " + formatType(r.Service)
	}
	return fmt.Sprintf("Injection of dependency %s into %s", formatType(r.Service), r.Target)
}

// formatActivationPath 从最深的请求向根请求编号
func formatActivationPath(r *Request) string {
	var sb strings.Builder
	sb.WriteString("Activation path:\n")
	for req := r; req != nil; req = req.Parent {
		fmt.Fprintf(&sb, "  %d) %s\n", req.Depth+1, formatRequest(req))
	}
	return sb.String()
}

func formatSuggestions(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("\nSuggestions:\n")
	for i, line := range lines {
		fmt.Fprintf(&sb, "  %d) %s\n", i+1, line)
	}
	return sb.String()
}

func errCouldNotResolve(r *Request) *ActivationError {
	svc := formatType(r.Service)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s\n", svc)
	sb.WriteString("No matching bindings are available, and the type is not self-bindable.\n")
	sb.WriteString(formatActivationPath(r))
	sb.WriteString(formatSuggestions(
		"Ensure that you have defined a binding for "+svc+".",
		"If the binding was defined in a module, ensure that the module has been loaded into the kernel.",
		"Ensure you have not accidentally created more than one kernel.",
		"If you are using constructor arguments, ensure that the parameter name matches the constructors parameter name.",
	))
	return newError(KindUnresolvable, sb.String(), nil)
}

func errAmbiguous(r *Request, candidates []*Binding) *ActivationError {
	svc := formatType(r.Service)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s\n", svc)
	sb.WriteString("More than one matching bindings are available.\n")
	sb.WriteString("Matching bindings:\n")
	for i, b := range candidates {
		fmt.Fprintf(&sb, "  %d) %s\n", i+1, formatBinding(b))
	}
	sb.WriteString(formatActivationPath(r))
	sb.WriteString(formatSuggestions(
		"Ensure that you have defined a binding for " + svc + " only once.",
	))
	return newError(KindAmbiguousBinding, sb.String(), nil)
}

func errCircular(ctx *Context) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	sb.WriteString("A cyclical dependency was detected between the constructors of two services.\n")
	sb.WriteString(formatActivationPath(ctx.Request))
	sb.WriteString(formatSuggestions(
		"Ensure that you have not declared a dependency for "+formatType(ctx.Request.Service)+" on any implementations of the service.",
		"Consider combining the services into a single one to remove the cycle.",
		"Use property injection instead of constructor injection, and implement Initializable if you need initialization logic to be run after property values have been injected.",
	))
	return newError(KindCircularDependency, sb.String(), nil)
}

func errNullInjection(ctx *Context) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	sb.WriteString("Provider returned nil.\n")
	sb.WriteString(formatActivationPath(ctx.Request))
	sb.WriteString(formatSuggestions(
		"Ensure that the provider handles creation requests properly.",
		"Enable AllowNullInjection if nil is a valid value for this service.",
	))
	return newError(KindNullInjection, sb.String(), nil)
}

func errAmbiguousConstructor(ctx *Context, t reflect.Type) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	fmt.Fprintf(&sb, "More than one constructor of %s is marked for injection.\n", formatType(t))
	sb.WriteString(formatActivationPath(ctx.Request))
	sb.WriteString(formatSuggestions(
		"Ensure that only one constructor of " + formatType(t) + " is registered with MarkInject.",
	))
	return newError(KindAmbiguousConstructor, sb.String(), nil)
}

func errNoConstructors(ctx *Context, t reflect.Type) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	fmt.Fprintf(&sb, "No constructor was available to create an instance of the implementation type %s.\n", formatType(t))
	sb.WriteString(formatActivationPath(ctx.Request))
	sb.WriteString(formatSuggestions(
		"Ensure that the implementation type is a pointer to a struct or has a registered constructor.",
		"If the service is an interface, bind it to a concrete implementation.",
	))
	return newError(KindInvalidBinding, sb.String(), nil)
}

func errUselessArgument(ctx *Context, name string) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	fmt.Fprintf(&sb, "No constructor parameter named %q exists on the selected constructor.\n", name)
	sb.WriteString(formatActivationPath(ctx.Request))
	sb.WriteString(formatSuggestions(
		"Ensure that the constructor argument name matches a parameter name set with ParamNames.",
	))
	return newError(KindUselessConstructorArgument, sb.String(), nil)
}

func errUnresolvableProperty(ctx *Context, name string) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	fmt.Fprintf(&sb, "No injectable property named %q exists for the property value.\n", name)
	sb.WriteString(formatActivationPath(ctx.Request))
	sb.WriteString(formatSuggestions(
		"Ensure that the field is tagged with di, or enable InjectUnmarkedProperties.",
		"Unexported fields also require InjectNonPublic.",
	))
	return newError(KindUnresolvableProperty, sb.String(), nil)
}

func errInvalidBinding(ctx *Context, cause error) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s using %s\n", formatType(ctx.Request.Service), formatBinding(ctx.Binding))
	sb.WriteString("The binding could not produce a provider.\n")
	sb.WriteString(formatActivationPath(ctx.Request))
	return newError(KindInvalidBinding, strings.TrimRight(sb.String(), "\n"), cause)
}

func errActivation(ctx *Context, stage string, cause error) *ActivationError {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error activating %s", formatType(ctx.Request.Service))
	if ctx.Binding != nil {
		fmt.Fprintf(&sb, " using %s", formatBinding(ctx.Binding))
	}
	fmt.Fprintf(&sb, "\n%s failed.\n", stage)
	sb.WriteString(formatActivationPath(ctx.Request))
	return newError(KindActivationFailed, strings.TrimRight(sb.String(), "\n"), cause)
}
