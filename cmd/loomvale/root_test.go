package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	want := []string{"run", "generate", "backlog", "config", "notify"}
	for _, name := range want {
		if findCommand(root, name) == nil {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	flag := root.PersistentFlags().Lookup("config")
	if flag == nil || flag.Shorthand != "c" {
		t.Error("persistent --config/-c flag not registered")
	}
}

func TestShouldSkipConfigWalksParents(t *testing.T) {
	root := newRootCommand()

	configCmd := findCommand(root, "config")
	if configCmd == nil {
		t.Fatal("config command missing")
	}
	initCmd := findCommand(configCmd, "init")
	if initCmd == nil {
		t.Fatal("config init command missing")
	}
	if !shouldSkipConfig(initCmd) {
		t.Error("config init must run without a loadable config")
	}

	runCmd := findCommand(root, "run")
	if shouldSkipConfig(runCmd) {
		t.Error("run requires a loaded config")
	}
}

func findCommand(parent *cobra.Command, name string) *cobra.Command {
	for _, cmd := range parent.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}
