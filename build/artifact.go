package build

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/danpasecinic/spindle/internal/definition"
)

// FormatVersion is written into every artifact. Artifacts are readable when
// their version satisfies formatConstraint.
const FormatVersion = "1.1.0"

var (
	formatConstraint = mustConstraint("^1.0")

	ErrIncompatibleArtifact = errors.New("incompatible artifact")
)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

type ServiceDefinition struct {
	ID         string                 `yaml:"id"`
	Definition *definition.Definition `yaml:"definition"`
}

// Artifact is the persisted form of a compiled definition graph.
type Artifact struct {
	FormatVersion string              `yaml:"format_version"`
	BuildID       string              `yaml:"build_id"`
	Namespace     string              `yaml:"namespace"`
	Class         string              `yaml:"class"`
	Module        string              `yaml:"module,omitempty"`
	Environment   string              `yaml:"environment"`
	BuiltAt       time.Time           `yaml:"built_at"`
	Fingerprint   string              `yaml:"fingerprint"`
	Resources     []string            `yaml:"resources,omitempty"`
	Parameters    map[string]any      `yaml:"parameters,omitempty"`
	Services      []ServiceDefinition `yaml:"services"`
}

// NewArtifact captures a compiled graph in dependency order.
func NewArtifact(req Request, g *definition.Graph, environment string, builtAt time.Time) (*Artifact, error) {
	if !g.Frozen() {
		return nil, fmt.Errorf("graph for %s is not compiled", req.ContainerClass())
	}

	fingerprint, err := Fingerprint(g.Resources())
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		FormatVersion: FormatVersion,
		BuildID:       uuid.NewString(),
		Namespace:     req.ContainerNamespace(),
		Class:         req.ContainerClass(),
		Module:        req.ModuleName,
		Environment:   environment,
		BuiltAt:       builtAt.UTC(),
		Fingerprint:   fingerprint,
		Resources:     g.Resources(),
		Parameters:    g.Parameters(),
	}
	for _, id := range g.CompiledOrder() {
		def, _ := g.Definition(id)
		a.Services = append(a.Services, ServiceDefinition{ID: id, Definition: def})
	}
	return a, nil
}

// FQCN is the fully qualified container name the resolver looks module
// containers up by.
func (a *Artifact) FQCN() string {
	return a.Namespace + `\` + a.Class
}

func (a *Artifact) Compatible() error {
	v, err := semver.NewVersion(a.FormatVersion)
	if err != nil {
		return fmt.Errorf("%w: format version %q: %v", ErrIncompatibleArtifact, a.FormatVersion, err)
	}
	if !formatConstraint.Check(v) {
		return fmt.Errorf("%w: format version %s, want %s", ErrIncompatibleArtifact, v, formatConstraint)
	}
	return nil
}

// Graph rebuilds the compiled definition graph the artifact was taken from.
func (a *Artifact) Graph() (*definition.Graph, error) {
	if err := a.Compatible(); err != nil {
		return nil, err
	}

	g := definition.NewGraph()
	for name, value := range a.Parameters {
		if err := g.SetParameter(name, value); err != nil {
			return nil, err
		}
	}
	for _, resource := range a.Resources {
		g.AddResource(resource)
	}
	for _, svc := range a.Services {
		if svc.Definition == nil {
			return nil, fmt.Errorf("artifact %s: service %s has no definition", a.Class, svc.ID)
		}
		if err := g.SetDefinition(svc.ID, svc.Definition); err != nil {
			return nil, err
		}
	}

	if err := g.Compile(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", a.Class, err)
	}
	return g, nil
}

func (a *Artifact) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	return enc.Close()
}

func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := yaml.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	return &a, nil
}

// Fingerprint hashes the paths and contents of the given resources. A
// missing resource hashes as its path alone.
func Fingerprint(resources []string) (string, error) {
	h := xxhash.New()
	for _, path := range resources {
		_, _ = h.WriteString(path)
		_, _ = h.Write([]byte{0})

		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", path, err)
		}
		_, _ = h.Write(data)
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}
