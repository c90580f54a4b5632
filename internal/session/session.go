package session

import (
	"context"
	"strings"

	"codeberg.org/mutker/obdctl/internal/dtc"
	"codeberg.org/mutker/obdctl/internal/errors"
)

// Session is the minimal surface the sampling loop depends on. Adapter
// discovery, protocol negotiation and per-query timeouts all live behind it.
type Session interface {
	IsConnected() bool
	Query(ctx context.Context, param Parameter) (Value, error)
	Close() error
}

// Describer is an optional capability: adapter and vehicle information.
type Describer interface {
	Describe() Info
}

// FaultReader is an optional capability: diagnostic trouble code access.
type FaultReader interface {
	ReadFaultCodes(ctx context.Context) ([]dtc.Code, error)
	ClearFaultCodes(ctx context.Context) error
}

// Info describes the adapter behind a session.
type Info struct {
	Adapter string
	Version string
}

// Parameter identifies one sampled vehicle parameter.
type Parameter struct {
	Name string
	Unit string
}

// The fixed parameter registry. Registry order is the stable column order
// used by the sampler and both exporters.
var registry = []Parameter{
	{Name: "RPM", Unit: "rpm"},
	{Name: "SPEED", Unit: "km/h"},
	{Name: "COOLANT_TEMP", Unit: "°C"},
	{Name: "THROTTLE_POS", Unit: "%"},
	{Name: "ENGINE_LOAD", Unit: "%"},
	{Name: "INTAKE_TEMP", Unit: "°C"},
	{Name: "MAF", Unit: "g/s"},
}

// All returns every supported parameter in registry order.
func All() []Parameter {
	out := make([]Parameter, len(registry))
	copy(out, registry)

	return out
}

// Lookup finds a parameter by name, case-insensitively.
func Lookup(name string) (Parameter, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, param := range registry {
		if param.Name == upper {
			return param, true
		}
	}

	return Parameter{}, false
}

// Resolve maps configured names onto registry parameters, preserving the
// caller's order.
func Resolve(names []string) ([]Parameter, error) {
	params := make([]Parameter, 0, len(names))
	for _, name := range names {
		param, ok := Lookup(name)
		if !ok {
			return nil, errors.WithData(ErrUnknownParameter, name)
		}
		params = append(params, param)
	}

	return params, nil
}
