// Package config loads the daemon configuration from a JSON document and
// fills in defaults for everything the operator left unset. Key material is
// resolved from the environment so config files stay safe to commit.
package config
