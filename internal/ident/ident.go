package ident

import (
	"fmt"
	"strings"
)

const Separator = `\`

const (
	suffixInterface = "Interface"
	suffixBridge    = "Bridge"
	suffixAdapter   = "Adapter"
)

type Parts struct {
	Namespace   string
	Application string
	Module      string
	Key         string
}

func Normalize(id string) string {
	return strings.TrimLeft(id, Separator)
}

func IsHierarchical(id string) bool {
	return strings.Contains(id, Separator)
}

func Segments(id string) []string {
	return strings.Split(Normalize(id), Separator)
}

func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split returns the namespace, application tier and module of a class-like
// identifier. Identifiers with fewer than three segments cannot name a module.
func Split(id string) (Parts, bool) {
	segments := Segments(id)
	if len(segments) < 3 {
		return Parts{}, false
	}

	return Parts{
		Namespace:   segments[0],
		Application: segments[1],
		Module:      segments[2],
		Key:         segments[1] + "." + segments[2],
	}, true
}

func Namespace(id string) string {
	id = Normalize(id)
	if i := strings.Index(id, Separator); i >= 0 {
		return id[:i]
	}
	return id
}

func InNamespace(id, namespace string) bool {
	return namespace != "" && IsHierarchical(id) && Namespace(id) == namespace
}

func InAnyNamespace(id string, namespaces []string) bool {
	for _, ns := range namespaces {
		if InNamespace(id, ns) {
			return true
		}
	}
	return false
}

func WithNamespace(id, namespace string) string {
	segments := Segments(id)
	segments[0] = namespace
	return Join(segments...)
}

func WithCodeBucket(id, bucket string) string {
	segments := Segments(id)
	if len(segments) < 3 {
		return Normalize(id)
	}
	segments[2] += bucket
	return Join(segments...)
}

// Fallbacks lists the names a compiled module container may hold an
// interface binding under: the bare implementation, then its Bridge and
// Adapter facades.
func Fallbacks(id string) []string {
	if !strings.HasSuffix(id, suffixInterface) {
		return nil
	}

	base := strings.TrimSuffix(id, suffixInterface)
	return []string{base, base + suffixBridge, base + suffixAdapter}
}

func IsBridge(class string) bool {
	return strings.HasSuffix(class, suffixBridge) || strings.HasSuffix(class, suffixAdapter)
}

func ModuleContainerName(p Parts) string {
	return fmt.Sprintf(`%s\%s\Service\Container\%sServiceContainer`, p.Namespace, p.Module, p.Module)
}

func ShortName(id string) string {
	segments := Segments(id)
	return segments[len(segments)-1]
}
