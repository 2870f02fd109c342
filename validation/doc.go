// Package validation provides input validation utilities for flowkit
// configuration and task definitions.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Shell    string `validate:"required"`
//	    WorkRoot string `validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("script", script)
//	err := v.Validate()
package validation
