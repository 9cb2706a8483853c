package shunting

// Vars is the variable lookup used when evaluating an expression. Get must
// return the same value for a name for the duration of one evaluation.
type Vars interface {
	// Get returns the value of a variable and whether it is defined.
	Get(name string) (float64, bool)
}

// MapVars is a plain map of variable values usable as Vars.
type MapVars map[string]float64

// Get returns the value of a variable in m.
func (m MapVars) Get(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// Context is a mutable set of variable definitions. It is not safe to Set
// variables while the context is used to evaluate an expression on another
// goroutine; give each goroutine its own Context instead.
type Context struct {
	names map[string]float64
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  float64
	}
	varsopt map[string]float64
)

func (varopt) ctxOption()  {}
func (varsopt) ctxOption() {}

// SetVar sets the value of a variable in a new context.
func SetVar(name string, val float64) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in a new context.
func SetVars(vars map[string]float64) ContextOption {
	return varsopt(vars)
}

// NewContext creates a new set of variables. Options are applied in order.
func NewContext(opts ...ContextOption) *Context {
	var ctx Context
	return ctx.Clone(opts...)
}

// Set sets the value of a variable, replacing any existing value. Returns ctx
// for chaining.
func (ctx *Context) Set(name string, value float64) *Context {
	if ctx.names == nil {
		ctx.names = make(map[string]float64)
	}
	ctx.names[name] = value
	return ctx
}

// Get returns the value of a variable and whether it is defined. A nil
// *Context defines no variables.
func (ctx *Context) Get(name string) (float64, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.names[name]
	return v, ok
}

// Delete removes a variable. Returns ctx for chaining. Deleting from a nil
// *Context does nothing.
func (ctx *Context) Delete(name string) *Context {
	if ctx == nil {
		return ctx
	}
	delete(ctx.names, name)
	return ctx
}

// Len returns the number of variables defined in the context.
func (ctx *Context) Len() int {
	if ctx == nil {
		return 0
	}
	return len(ctx.names)
}

// Names returns the sorted names of the variables defined in the context.
func (ctx *Context) Names() []string {
	if ctx == nil {
		return nil
	}
	r := make([]string, 0, len(ctx.names))
	for k := range ctx.names {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

// Clone creates a copy of a context and applies options to it. Changes to the
// copy do not affect ctx. Cloning a nil *Context gives an empty one.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{names: make(map[string]float64)}
	if ctx != nil {
		for name, val := range ctx.names {
			n.names[name] = val
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.names[opt.name] = opt.val
		case varsopt:
			for k, v := range opt {
				n.names[k] = v
			}
		default:
			panic("shunting: unknown option type")
		}
	}
	return &n
}

var (
	_ Vars = (*Context)(nil)
	_ Vars = MapVars(nil)
)
