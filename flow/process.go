package flow

import (
	"fmt"

	"github.com/kbukum/flowkit/task"
	"github.com/kbukum/flowkit/validation"
)

// SourceExpr is anything a process input can be declared with: a literal
// value, a channel.Channel[any] to adopt, a slice to expand via an iterator
// input, or a Deferred for lazy evaluation.
type SourceExpr = any

// Deferred is a lazily evaluated source expression. It is called exactly
// once, at bind time; its result is resolved with the same rules as a
// direct source.
type Deferred func() (any, error)

// Input declares one process input: the parameter name, the source
// expression it binds to, and whether the source is expanded element-wise
// into a stream.
type Input struct {
	Name     string
	Source   SourceExpr
	Iterator bool
}

// Ports accumulates the ordered input and output declarations of a process.
type Ports struct {
	Inputs  []Input
	Outputs []string
}

// DeclareInput appends a non-iterator input binding.
func (p *Ports) DeclareInput(name string, src SourceExpr) *Ports {
	p.Inputs = append(p.Inputs, Input{Name: name, Source: src})
	return p
}

// DeclareIterator appends an input whose source is expanded element-wise.
func (p *Ports) DeclareIterator(name string, src SourceExpr) *Ports {
	p.Inputs = append(p.Inputs, Input{Name: name, Source: src, Iterator: true})
	return p
}

// DeclareOutput appends an output name.
func (p *Ports) DeclareOutput(name string) *Ports {
	p.Outputs = append(p.Outputs, name)
	return p
}

// ProcessDef is a runnable process: a named script template with declared
// ports and per-run execution settings.
type ProcessDef struct {
	Name   string
	Script string
	Ports  Ports
	Config task.Config
}

// Validate checks the definition's shape: the name must be usable as a
// work-dir path component, input names must be legal shell variable names
// and unique, and execution settings must be sane. The script itself is a
// launch precondition, not a shape concern.
func (d *ProcessDef) Validate() error {
	v := validation.New()
	v.Required("name", d.Name).ProcessName("name", d.Name)
	v.NonNegativeDuration("config.max_duration", d.Config.MaxDuration)

	seen := make(map[string]bool, len(d.Ports.Inputs))
	for i, in := range d.Ports.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		v.Required(field, in.Name).ShellName(field, in.Name)
		v.Custom(!seen[in.Name], field, "duplicate input name "+in.Name)
		seen[in.Name] = true
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
