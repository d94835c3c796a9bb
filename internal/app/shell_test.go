package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/justyntemme/shelf/internal/fs"
)

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		line     string
		expected Command
	}{
		{"", Command{}},
		{"   ", Command{}},
		{"ls", Command{Action: ActionList}},
		{"3", Command{Action: ActionEnter, Index: 2}},
		{"cd 1", Command{Action: ActionEnter, Index: 0}},
		{"open 12", Command{Action: ActionEnter, Index: 11}},
		{"..", Command{Action: ActionUp}},
		{"root /media/books", Command{Action: ActionChooseRoot, Arg: "/media/books"}},
		{"FIND  Sci Fi ", Command{Action: ActionSearch, Arg: "Sci Fi"}},
		{"switch", Command{Action: ActionSwitchVolume}},
		{"cancel", Command{Action: ActionCancel}},
		{"grants", Command{Action: ActionGrants}},
		{"revoke 2", Command{Action: ActionRevoke, Arg: "2"}},
		{"clearhome", Command{Action: ActionClearHome}},
		{"quit", Command{Action: ActionQuit}},
	}

	for _, tc := range testCases {
		got, err := ParseCommand(tc.line)
		if err != nil {
			t.Errorf("ParseCommand(%q): %v", tc.line, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("ParseCommand(%q): expected %+v, got %+v", tc.line, tc.expected, got)
		}
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{"frobnicate", "cd", "cd x", "root", "find", "revoke"} {
		if _, err := ParseCommand(line); err == nil {
			t.Errorf("ParseCommand(%q): expected error", line)
		}
	}
}

func TestShell_Session(t *testing.T) {
	f := newBrowser(t, newLibrary(), nil, 0)
	in := strings.NewReader(strings.Join([]string{
		"1",
		"root /lib",
		"1",
		"up",
		"bogus",
		"home",
		"quit",
		"ls",
	}, "\n"))
	var out bytes.Buffer

	if err := NewShell(f.browser, in, &out).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Open a folder first",
		"== lib ==",
		"   1. sub/",
		"   2. manual-1.pdf",
		"== sub ==",
		"unknown command \"bogus\"",
		"Home is not set",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	// Nothing after quit runs
	if strings.Count(got, "== lib ==") != 2 {
		t.Errorf("expected two lib listings:\n%s", got)
	}
}

func TestShell_EndOfInput(t *testing.T) {
	f := newBrowser(t, newLibrary(), nil, 0)
	var out bytes.Buffer
	if err := NewShell(f.browser, strings.NewReader("help\n"), &out).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "find <text>") {
		t.Errorf("help not printed:\n%s", out.String())
	}
}

func TestShell_Grants(t *testing.T) {
	f := newBrowser(t, newLibrary(), nil, 0)
	ctx := context.Background()
	books := fs.TreeIdentifier("local", "primary:Books")
	music := fs.TreeIdentifier("local", "primary:Music")
	for _, g := range []string{books, music} {
		if err := f.store.AddGrant(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	in := strings.NewReader(strings.Join([]string{
		"grants",
		"revoke 3",
		"revoke 1",
		"revoke " + music,
		"grants",
		"clearhome",
	}, "\n"))
	var out bytes.Buffer
	if err := NewShell(f.browser, in, &out).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		" 1. " + books,
		" 2. " + music,
		"No such entry",
		"Access revoked: " + books,
		"Access revoked: " + music,
		"No document trees granted",
		"Home cleared",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
