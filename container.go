package spindle

const (
	RoleProject     = "project_container"
	RoleApplication = "application_container"

	// SelfID is the reserved identifier under which the resolver exposes
	// itself.
	SelfID = "service_container"
)

// Container is a compiled store the resolver federates over.
type Container interface {
	Has(id string) bool
	Get(id string) (any, error)
}

type ParameterContainer interface {
	HasParameter(name string) bool
	GetParameter(name string) (any, error)
}

type RemovedIDsReporter interface {
	RemovedIDs() map[string]bool
}

type ParameterBagProvider interface {
	ParameterBag() map[string]any
}

// NamedContainer lets a container report the name used in diagnostics.
type NamedContainer interface {
	Name() string
}

type ContainerFactory func() (Container, error)

// ContainerName is the diagnostic name of c, or fallback when it has none.
func ContainerName(fallback string, c Container) string {
	if named, ok := c.(NamedContainer); ok && named.Name() != "" {
		return named.Name()
	}
	return fallback
}
