// Package spindle resolves services across a federation of compiled
// containers.
//
// An application attaches a project container and optionally an application
// container, and registers one lazily built container per module. A
// Resolver answers lookups by identifier: flat identifiers are served by the
// attached containers, class-like identifiers are tried against every project
// namespace and then the container of the module they belong to.
//
// # Resolution
//
//	r := spindle.New(spindle.WithConfig(cfg))
//	r.AttachContainer(spindle.RoleProject, project)
//	r.RegisterModuleContainer(`Core\Customer\Service\Container\CustomerServiceContainer`, factory)
//
//	facade, err := spindle.Get[*CustomerFacade](r, `Core\Zed\Customer\Business\CustomerFacade`)
//
// A miss on a class-like identifier fails with an *Error whose Checks list
// every identifier and container that was tried. Flat identifiers that
// nothing holds resolve to nil without an error.
//
// # Proxies
//
// Dependencies a module container cannot satisfy itself are compiled into
// proxies. A Proxy resolves its target through the resolver on first use and
// caches it; Deref and Get force proxies transparently:
//
//	mail, err := spindle.Deref[MailFacade](facade.Mail)
//
// # Overrides and parameters
//
// Set installs a service that wins over every container, and SetParameter a
// parameter that wins over container parameters. The resolver exposes itself
// under SelfID, which cannot be overridden.
//
// # Building containers
//
// Module containers are compiled from services files by package build, which
// runs the rewrite passes and stores versioned artifacts on disk or in redis.
// The spindle command wraps building, inspection and a metrics server.
//
// # Health and lifecycle
//
// Resolved services implementing HealthChecker, ReadinessChecker or
// LifecycleAware take part in Health, Readiness, Start and Stop.
package spindle
