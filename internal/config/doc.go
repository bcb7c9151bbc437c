// Package config holds scan settings: defaults, validation, the optional
// .leakscan YAML file and the targets file reader.
package config
