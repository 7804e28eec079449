// Package config loads reqlab's runtime settings.
//
// Values are layered, later layers winning:
//
//  1. Defaults
//  2. YAML file (reqlab.yaml or reqlab.yml in the working directory, or the
//     file named by --config / REQLAB_CONFIG)
//  3. Environment variables (REQLAB_* prefix)
//  4. Command-line flags, applied by the CLI with Set
//
// Sources records which layer supplied each key, for `reqlab config`-style
// diagnostics and for error messages.
package config
