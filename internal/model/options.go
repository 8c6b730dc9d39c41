package model

// ContainerOptions is the task specific configuration submitted to launch a service.
// It is always a flat mapping of field name to value.
type ContainerOptions map[string]string

// Clone returns a copy of the options.
func (o ContainerOptions) Clone() ContainerOptions {
	c := make(ContainerOptions, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// ValidationResult is the result of validating a single field.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidationErrors maps a field name to its failed validation. A nil or absent
// entry means the field is valid.
type ValidationErrors map[string]*ValidationResult

// Failed returns the failed entries only.
func (v ValidationErrors) Failed() map[string]string {
	failed := map[string]string{}
	for field, res := range v {
		if res != nil && !res.OK {
			failed[field] = res.Message
		}
	}
	return failed
}
