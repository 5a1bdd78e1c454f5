package spindle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danpasecinic/spindle/internal/container"
	"github.com/danpasecinic/spindle/internal/definition"
	"github.com/danpasecinic/spindle/internal/graph"
	"github.com/danpasecinic/spindle/manifest"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeServiceNotFound
	ErrCodeInvalidMutation
	ErrCodeConfiguration
	ErrCodeResolutionFailed
	ErrCodeProviderFailed
	ErrCodeCircularDependency
	ErrCodeGraphFrozen
	ErrCodeHealthCheckFailed
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeServiceNotFound:    "SERVICE_NOT_FOUND",
	ErrCodeInvalidMutation:    "INVALID_MUTATION",
	ErrCodeConfiguration:      "CONFIGURATION",
	ErrCodeResolutionFailed:   "RESOLUTION_FAILED",
	ErrCodeProviderFailed:     "PROVIDER_FAILED",
	ErrCodeCircularDependency: "CIRCULAR_DEPENDENCY",
	ErrCodeGraphFrozen:        "GRAPH_FROZEN",
	ErrCodeHealthCheckFailed:  "HEALTH_CHECK_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Check records one identifier that was looked up in one container.
type Check struct {
	ID        string `json:"id"`
	Container string `json:"container"`
}

type Error struct {
	Code    ErrorCode
	Message string
	Service string
	Cause   error
	Checks  []Check
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	for _, check := range e.Checks {
		b.WriteString(fmt.Sprintf("\nchecked \"%s\" in container \"%s\"", check.ID, check.Container))
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

func (e *Error) WithChecks(checks []Check) *Error {
	e.Checks = checks
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errServiceNotFound(id string, checks []Check) *Error {
	return newError(
		ErrCodeServiceNotFound,
		fmt.Sprintf(
			"could not find \"%s\" in any of the attached containers; a core service auto-wired from a module "+
				"without a container needs its dependencies configured in a container that is attached",
			id,
		),
		nil,
	).WithService(id).WithChecks(checks)
}

func errInvalidMutation(id string) *Error {
	return newError(
		ErrCodeInvalidMutation,
		fmt.Sprintf("cannot set reserved service %q", id),
		nil,
	).WithService(id)
}

func errResolutionFailed(id, container string, cause error) *Error {
	return newError(
		ErrCodeResolutionFailed,
		fmt.Sprintf("container %q failed to build %s", container, id),
		cause,
	).WithService(id)
}

func errHealthCheckFailed(name string, cause error) *Error {
	return newError(
		ErrCodeHealthCheckFailed,
		fmt.Sprintf("health check failed for %s", name),
		cause,
	).WithService(name)
}

func errProviderFailed(class string, cause error) *Error {
	return newError(
		ErrCodeProviderFailed,
		fmt.Sprintf("dependency provider %s failed", class),
		cause,
	).WithService(class)
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeServiceNotFound
}

func IsInvalidMutation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeInvalidMutation
}

func IsResolutionFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeResolutionFailed
}

func IsProviderFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeProviderFailed
}

// IsConfiguration reports a malformed stack descriptor or class manifest.
func IsConfiguration(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeConfiguration {
		return true
	}
	return errors.Is(err, manifest.ErrInvalidDescriptor)
}

// IsCircularDependency reports a dependency cycle found while compiling a
// graph or while building a service.
func IsCircularDependency(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeCircularDependency {
		return true
	}
	return errors.Is(err, container.ErrCircularResolution) || errors.Is(err, graph.ErrCycleDetected)
}

func IsGraphFrozen(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeGraphFrozen {
		return true
	}
	return errors.Is(err, definition.ErrFrozen)
}

func IsHealthCheckFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeHealthCheckFailed
}
