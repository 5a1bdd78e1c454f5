package manifest

type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
)

type ParamKind uint8

const (
	// ParamNamed is a parameter typed with a class or interface name.
	ParamNamed ParamKind = iota
	ParamBuiltin
	ParamCollection
	// ParamUntyped carries no type; Bridge and Adapter classes document the
	// expected type instead.
	ParamUntyped
)

type Param struct {
	Name string
	Type string
	Kind ParamKind
	// Hint names the documented type of an untyped parameter.
	Hint string
}

type Constructor struct {
	Params []Param
	// Doc is the constructor's documentation block. "@param Type $name"
	// lines supply hints for untyped parameters.
	Doc    string
	Stacks []*Stack
}

type FactoryFunc func(args Args) (any, error)

type Method func(instance any) (any, error)

type Class struct {
	Name        string
	Kind        Kind
	Builtin     bool
	Constructor *Constructor
	Stacks      []*Stack
	Factory     FactoryFunc
	Methods     map[string]Method
}

func (c *Class) IsInterface() bool {
	return c.Kind == KindInterface
}

func (c *Class) UserDefined() bool {
	return !c.Builtin
}

func (c *Class) Param(name string) (Param, bool) {
	if c.Constructor == nil {
		return Param{}, false
	}
	for _, p := range c.Constructor.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (c *Class) Method(name string) (Method, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

func Named(name, typ string) Param {
	return Param{Name: name, Type: typ, Kind: ParamNamed}
}

func Builtin(name, typ string) Param {
	return Param{Name: name, Type: typ, Kind: ParamBuiltin}
}

func Collection(name string) Param {
	return Param{Name: name, Type: "array", Kind: ParamCollection}
}

func Untyped(name string) Param {
	return Param{Name: name, Kind: ParamUntyped}
}
