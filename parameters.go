package spindle

// GetParameter looks name up in the local parameters, then the application
// container, then the project container. A miss yields nil without error.
func (r *Resolver) GetParameter(name string) (any, error) {
	r.mu.Lock()
	if v, ok := r.parameters[name]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	for _, role := range []string{RoleApplication, RoleProject} {
		c, ok := r.container(role)
		if !ok {
			continue
		}

		if pc, ok := c.(ParameterContainer); ok && pc.HasParameter(name) {
			return pc.GetParameter(name)
		}
		if c.Has(name) {
			return c.Get(name)
		}
	}

	return nil, nil
}

func (r *Resolver) HasParameter(name string) bool {
	r.mu.Lock()
	if _, ok := r.parameters[name]; ok {
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	for _, role := range []string{RoleApplication, RoleProject} {
		c, ok := r.container(role)
		if !ok {
			continue
		}

		if pc, ok := c.(ParameterContainer); ok && pc.HasParameter(name) {
			return true
		}
		if c.Has(name) {
			return true
		}
	}

	return false
}

func (r *Resolver) SetParameter(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parameters[name] = value
}

// FindParameter returns the parameter or nil when it is absent or cannot be
// read.
func (r *Resolver) FindParameter(name string) any {
	if !r.HasParameter(name) {
		return nil
	}
	v, err := r.GetParameter(name)
	if err != nil {
		return nil
	}
	return v
}
