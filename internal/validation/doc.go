// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

// Package validation wraps go-playground/validator v10 behind a
// thread-safe singleton with human-readable error messages.
//
// The validator instance is created once and caches struct reflection
// metadata, so repeated validation of the same type is cheap. Callers
// declare rules with `validate` struct tags and invoke ValidateStruct:
//
//	type Settings struct {
//	    Level  string  `validate:"oneof=debug info warn error"`
//	    Lambda float64 `validate:"gt=0,lte=1"`
//	}
//
//	if verr := validation.ValidateStruct(&settings); verr != nil {
//	    return fmt.Errorf("invalid settings: %w", verr)
//	}
//
// Failed validations translate into messages such as "Lambda must be
// greater than 0" rather than the library's raw tag dump. Cross-field
// rules that tags cannot express belong in the caller's own Validate
// method, layered after ValidateStruct.
package validation
