package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danpasecinic/spindle/internal/definition"
)

const defaultsKey = "_defaults"

// ArgumentSpec is one constructor argument in a services file. A plain
// scalar is a literal; "@id" is shorthand for a reference.
type ArgumentSpec struct {
	Ref    string `yaml:"ref"`
	Tagged string `yaml:"tagged"`
	Value  any    `yaml:"value"`
}

func (a *ArgumentSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		type plain ArgumentSpec
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*a = ArgumentSpec(p)
		if a.Ref != "" && a.Tagged != "" {
			return fmt.Errorf("line %d: argument sets both ref and tagged", node.Line)
		}
		return nil
	}

	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" && strings.HasPrefix(node.Value, "@") {
		a.Ref = strings.TrimPrefix(node.Value, "@")
		return nil
	}
	return node.Decode(&a.Value)
}

func (a ArgumentSpec) argument() definition.Argument {
	switch {
	case a.Ref != "":
		return definition.Ref(a.Ref)
	case a.Tagged != "":
		return definition.Tagged(a.Tagged)
	}
	return definition.Value(a.Value)
}

type TagSpec struct {
	Name     string `yaml:"name" validate:"required"`
	Position *int   `yaml:"position"`
	Consumer string `yaml:"consumer"`
}

// UnmarshalYAML accepts a bare tag name as well as the mapping form.
func (t *TagSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Name = node.Value
		return nil
	}
	type plain TagSpec
	return node.Decode((*plain)(t))
}

type FactorySpec struct {
	Service   string         `yaml:"service" validate:"required"`
	Method    string         `yaml:"method" validate:"required"`
	Arguments []ArgumentSpec `yaml:"arguments"`
}

type ServiceSpec struct {
	Class     string                  `yaml:"class" validate:"required_without=Factory"`
	Arguments map[string]ArgumentSpec `yaml:"arguments"`
	Tags      []TagSpec               `yaml:"tags" validate:"dive"`
	Autowire  *bool                   `yaml:"autowire"`
	Public    *bool                   `yaml:"public"`
	Abstract  bool                    `yaml:"abstract"`
	Lazy      bool                    `yaml:"lazy"`
	Factory   *FactorySpec            `yaml:"factory"`
}

type NamedService struct {
	ID   string
	Spec ServiceSpec
}

// ServicesFile is a parsed services file with its imports merged in.
type ServicesFile struct {
	Parameters map[string]any
	Defaults   ServiceSpec
	Services   []NamedService
	Resources  []string
}

type servicesDocument struct {
	Imports    []string       `yaml:"imports"`
	Parameters map[string]any `yaml:"parameters"`
	Services   yaml.Node      `yaml:"services"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadServices reads a services file and the files it imports, relative to
// its own directory. Definitions of the importing file win.
func LoadServices(path string) (*ServicesFile, error) {
	f := &ServicesFile{Parameters: make(map[string]any)}
	if err := f.load(path, make(map[string]bool)); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *ServicesFile) load(path string, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if seen[abs] {
		return fmt.Errorf("services file %s imported twice", path)
	}
	seen[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read services file: %w", err)
	}

	var doc servicesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse services file %s: %w", path, err)
	}

	for _, imp := range doc.Imports {
		if !filepath.IsAbs(imp) {
			imp = filepath.Join(filepath.Dir(abs), imp)
		}
		if err := f.load(imp, seen); err != nil {
			return err
		}
	}

	f.Resources = append(f.Resources, abs)
	for name, value := range doc.Parameters {
		f.Parameters[name] = value
	}
	return f.decodeServices(path, &doc.Services)
}

func (f *ServicesFile) decodeServices(path string, node *yaml.Node) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: services must be a mapping", path)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		id := strings.TrimLeft(node.Content[i].Value, `\`)

		var spec ServiceSpec
		if node.Content[i+1].Kind != yaml.ScalarNode || node.Content[i+1].Tag != "!!null" {
			if err := node.Content[i+1].Decode(&spec); err != nil {
				return fmt.Errorf("%s: service %s: %w", path, id, err)
			}
		}

		if id == defaultsKey {
			f.Defaults = spec
			continue
		}

		if spec.Class == "" && spec.Factory == nil {
			spec.Class = id
		}
		if err := validate.Struct(spec); err != nil {
			return fmt.Errorf("%s: service %s: %w", path, id, err)
		}
		f.set(id, spec)
	}
	return nil
}

func (f *ServicesFile) set(id string, spec ServiceSpec) {
	for i := range f.Services {
		if f.Services[i].ID == id {
			f.Services[i].Spec = spec
			return
		}
	}
	f.Services = append(f.Services, NamedService{ID: id, Spec: spec})
}

// Apply adds the parameters and definitions of the file to g.
func (f *ServicesFile) Apply(g *definition.Graph) error {
	for name, value := range f.Parameters {
		if err := g.SetParameter(name, value); err != nil {
			return err
		}
	}
	for _, resource := range f.Resources {
		g.AddResource(resource)
	}

	for _, svc := range f.Services {
		if err := g.SetDefinition(svc.ID, f.definition(svc.Spec)); err != nil {
			return err
		}
	}
	return nil
}

func (f *ServicesFile) definition(spec ServiceSpec) *definition.Definition {
	def := definition.New(spec.Class)
	def.Autowired = flag(spec.Autowire, f.Defaults.Autowire)
	def.Public = flag(spec.Public, f.Defaults.Public)
	def.Abstract = spec.Abstract
	def.Lazy = spec.Lazy

	for name, arg := range spec.Arguments {
		def.SetArgument(name, arg.argument())
	}
	for _, tag := range spec.Tags {
		def.AddTag(definition.Tag{Name: tag.Name, Position: tag.Position, Consumer: strings.TrimLeft(tag.Consumer, `\`)})
	}

	if spec.Factory != nil {
		args := make([]definition.Argument, 0, len(spec.Factory.Arguments))
		for _, arg := range spec.Factory.Arguments {
			args = append(args, arg.argument())
		}
		def.SetFactory(spec.Factory.Service, spec.Factory.Method, args...)
	}
	return def
}

func flag(v, fallback *bool) bool {
	if v != nil {
		return *v
	}
	return fallback != nil && *fallback
}
