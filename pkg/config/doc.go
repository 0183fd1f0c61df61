// Package config provides configuration loading, validation, defaults,
// and hot reloading for Vigil.
//
// Configuration comes from a YAML file with VIGIL_* environment variable
// overrides layered on top. Validation collects every problem into a
// single ValidationError so the operator can fix the file in one pass;
// an incomplete rate-limit or threshold table refuses to start.
//
// The loaded Config is immutable. Hot reloading swaps a complete new
// Config into a Snapshot atomically: readers never observe a partially
// applied update, and a reload that fails validation leaves the previous
// configuration in effect.
package config
