package catalog

import _ "embed"

// builtinYAML is the method set shipped with the binary. User catalog
// files layer on top of it and may override entries by ID.
//
//go:embed builtin.yaml
var builtinYAML []byte
