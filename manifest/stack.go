package manifest

import "fmt"

// Stack describes how a value, or an ordered collection of values, is
// contributed to a consumer. Attached to a class it registers the class as a
// contribution to the Service collection; attached to a constructor it binds
// ProvideToArgument to a collection.
type Stack struct {
	dependencyProvider       string
	dependencyProviderMethod string
	provideToClass           string
	provideToArgument        string
	stackPosition            int
	hasPosition              bool
	service                  string
}

type StackOption func(*Stack)

func WithDependencyProvider(class, method string) StackOption {
	return func(s *Stack) {
		s.dependencyProvider = normalize(class)
		s.dependencyProviderMethod = method
	}
}

func WithProvideToClass(class string) StackOption {
	return func(s *Stack) {
		s.provideToClass = normalize(class)
	}
}

func WithProvideToArgument(argument string) StackOption {
	return func(s *Stack) {
		s.provideToArgument = trimArgument(argument)
	}
}

func WithStackPosition(position int) StackOption {
	return func(s *Stack) {
		s.stackPosition = position
		s.hasPosition = true
	}
}

func WithService(service string) StackOption {
	return func(s *Stack) {
		s.service = service
	}
}

// NewStack builds a descriptor and rejects a dependency provider that lacks
// either its getter method or the constructor argument it feeds.
func NewStack(opts ...StackOption) (*Stack, error) {
	s := &Stack{}
	for _, opt := range opts {
		opt(s)
	}

	if s.dependencyProvider != "" && s.dependencyProviderMethod == "" {
		return nil, configError(
			s.dependencyProvider,
			fmt.Sprintf(
				"dependency provider %q resolves a stack but no dependency provider method was given",
				s.dependencyProvider,
			),
		)
	}

	if s.dependencyProvider != "" && s.provideToArgument == "" {
		return nil, configError(
			s.dependencyProvider,
			fmt.Sprintf(
				"dependency provider method %s::%s resolves a stack but no constructor argument to provide it to was given",
				s.dependencyProvider, s.dependencyProviderMethod,
			),
		)
	}

	return s, nil
}

func MustStack(opts ...StackOption) *Stack {
	s, err := NewStack(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Stack) DependencyProvider() string       { return s.dependencyProvider }
func (s *Stack) DependencyProviderMethod() string { return s.dependencyProviderMethod }
func (s *Stack) ProvideToClass() string           { return s.provideToClass }
func (s *Stack) ProvideToArgument() string        { return s.provideToArgument }
func (s *Stack) Service() string                  { return s.service }

func (s *Stack) StackPosition() (int, bool) {
	return s.stackPosition, s.hasPosition
}

func (s *Stack) UsesProvider() bool {
	return s.dependencyProvider != "" && s.dependencyProviderMethod != ""
}

func trimArgument(name string) string {
	if len(name) > 0 && name[0] == '$' {
		return name[1:]
	}
	return name
}
