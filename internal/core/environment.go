// Package core holds small values shared across the service.
package core

import "strings"

// Environment is the deployment environment the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

func (e Environment) IsDevelopment() bool {
	return e == Development
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps v onto a known environment. Anything unrecognised is
// treated as development.
func ParseEnvironment(v string) Environment {
	switch e := Environment(strings.ToLower(strings.TrimSpace(v))); e {
	case Production, Staging, Testing:
		return e
	default:
		return Development
	}
}

// Decode lets envconfig populate an Environment field.
func (e *Environment) Decode(value string) error {
	*e = ParseEnvironment(value)
	return nil
}
