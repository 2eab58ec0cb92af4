package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// autoSwitch is the value of an on|off|auto flag. Auto follows whether the
// stream it guards is a terminal.
type autoSwitch uint8

const (
	switchAuto autoSwitch = iota
	switchOn
	switchOff
)

var switchNames = map[string]autoSwitch{"": switchAuto, "auto": switchAuto, "on": switchOn, "off": switchOff}

func parseSwitch(flag, value string) (autoSwitch, error) {
	s, ok := switchNames[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return switchAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
	return s, nil
}

func (s autoSwitch) enabled(f *os.File) bool {
	switch s {
	case switchOn:
		return true
	case switchOff:
		return false
	}
	return isTerminal(f)
}

// switchFlag reads an on|off|auto flag of cmd, local or persistent.
func switchFlag(cmd *cobra.Command, name string) (autoSwitch, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		if value, err = cmd.Root().PersistentFlags().GetString(name); err != nil {
			return switchAuto, err
		}
	}
	return parseSwitch(name, value)
}
