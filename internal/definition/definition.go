package definition

import (
	"slices"
	"strings"
)

// Argument is a constructor or factory argument: a reference to another
// service, the ordered collection of services carrying a tag, or a literal.
type Argument struct {
	Ref    string `yaml:"ref,omitempty" json:"ref,omitempty"`
	Tagged string `yaml:"tagged,omitempty" json:"tagged,omitempty"`
	Value  any    `yaml:"value" json:"value,omitempty"`
}

func Ref(id string) Argument {
	return Argument{Ref: strings.TrimLeft(id, `\`)}
}

func Tagged(tag string) Argument {
	return Argument{Tagged: tag}
}

func Value(v any) Argument {
	return Argument{Value: v}
}

func (a Argument) IsRef() bool    { return a.Ref != "" }
func (a Argument) IsTagged() bool { return a.Tagged != "" }

type Tag struct {
	Name     string `yaml:"name" json:"name"`
	Position *int   `yaml:"position,omitempty" json:"position,omitempty"`
	// Consumer restricts the contribution to one consuming class.
	Consumer string `yaml:"consumer,omitempty" json:"consumer,omitempty"`
}

type Factory struct {
	Service   string     `yaml:"service" json:"service"`
	Method    string     `yaml:"method" json:"method"`
	Arguments []Argument `yaml:"arguments,omitempty" json:"arguments,omitempty"`
}

type Definition struct {
	Class     string              `yaml:"class,omitempty" json:"class,omitempty"`
	Arguments map[string]Argument `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Tags      []Tag               `yaml:"tags,omitempty" json:"tags,omitempty"`
	Autowired bool                `yaml:"autowire,omitempty" json:"autowire,omitempty"`
	Abstract  bool                `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Lazy      bool                `yaml:"lazy,omitempty" json:"lazy,omitempty"`
	Public    bool                `yaml:"public,omitempty" json:"public,omitempty"`
	// Synthetic services are injected at runtime instead of being built.
	Synthetic bool     `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`
	Factory   *Factory `yaml:"factory,omitempty" json:"factory,omitempty"`
}

func New(class string) *Definition {
	return &Definition{
		Class:     strings.TrimLeft(class, `\`),
		Arguments: make(map[string]Argument),
	}
}

func (d *Definition) SetArgument(name string, arg Argument) *Definition {
	if d.Arguments == nil {
		d.Arguments = make(map[string]Argument)
	}
	d.Arguments[strings.TrimPrefix(name, "$")] = arg
	return d
}

func (d *Definition) Argument(name string) (Argument, bool) {
	arg, ok := d.Arguments[strings.TrimPrefix(name, "$")]
	return arg, ok
}

func (d *Definition) SetFactory(service, method string, args ...Argument) *Definition {
	d.Factory = &Factory{Service: service, Method: method, Arguments: args}
	return d
}

func (d *Definition) AddTag(tag Tag) *Definition {
	d.Tags = append(d.Tags, tag)
	return d
}

func (d *Definition) HasTag(name string) bool {
	return slices.ContainsFunc(d.Tags, func(t Tag) bool { return t.Name == name })
}

// References lists the ids this definition depends on directly: argument
// references and the factory service. Tagged collections are expanded by
// the graph.
func (d *Definition) References() []string {
	var refs []string
	if d.Factory != nil {
		refs = append(refs, d.Factory.Service)
		for _, arg := range d.Factory.Arguments {
			if arg.IsRef() {
				refs = append(refs, arg.Ref)
			}
		}
	}
	for _, name := range d.ArgumentNames() {
		if arg := d.Arguments[name]; arg.IsRef() {
			refs = append(refs, arg.Ref)
		}
	}
	return refs
}

func (d *Definition) ArgumentNames() []string {
	names := make([]string, 0, len(d.Arguments))
	for name := range d.Arguments {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
