package main

import "testing"

func TestArgv0Alias(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "scrollterm", base: "scrollterm", want: "exec"},
		{name: "scrollcon", base: "scrollcon", want: ""},
	}
	for _, tc := range tests {
		if got := argv0Alias(tc.base); got != tc.want {
			t.Fatalf("%s: argv0Alias(%q) = %q, want %q", tc.name, tc.base, got, tc.want)
		}
	}
}

func TestApplyArgv0Alias(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "empty", args: nil, want: nil},
		{name: "no-alias", args: []string{"scrollcon", "serve"}, want: []string{"scrollcon", "serve"}},
		{name: "scrollterm", args: []string{"/usr/bin/scrollterm", "--", "sh"}, want: []string{"/usr/bin/scrollterm", "exec", "--", "sh"}},
	}
	for _, tc := range tests {
		got := applyArgv0Alias(tc.args)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: applyArgv0Alias length = %d, want %d", tc.name, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: applyArgv0Alias[%d] = %q, want %q", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestRootCommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "exec", "config", "totp", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s command, got %v (%v)", name, cmd, err)
		}
	}
}
