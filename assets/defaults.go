package assets

import (
	_ "embed"
)

// DefaultCommandsYAML contains the embedded default command catalog.
//
//go:embed defaults/commands.yaml
var DefaultCommandsYAML []byte
