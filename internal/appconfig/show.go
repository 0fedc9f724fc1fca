package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the resolved configuration. Coloring is disabled unless
// color is set, so redirected output stays plain.
func ShowConfig(out io.Writer, file string, cfg *Config, color bool) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults and flags).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		d := Defaults()
		cfg = &d
	}

	previous := pp.ColoringEnabled
	pp.ColoringEnabled = color
	defer func() { pp.ColoringEnabled = previous }()

	fmt.Fprintln(out, "Current configuration:")
	pp.Fprintln(out, *cfg)
}
