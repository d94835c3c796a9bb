package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/volume"
)

// Action is one shell command.
type Action int

const (
	ActionNone Action = iota
	ActionList
	ActionEnter
	ActionUp
	ActionChooseRoot
	ActionStorage
	ActionSwitchVolume
	ActionVolumes
	ActionSetHome
	ActionHome
	ActionClearHome
	ActionGrants
	ActionRevoke
	ActionSearch
	ActionCancel
	ActionHelp
	ActionQuit
)

// Command is a parsed input line.
type Command struct {
	Action Action
	Index  int
	Arg    string
}

var commandWords = map[string]Action{
	"ls":        ActionList,
	"refresh":   ActionList,
	"cd":        ActionEnter,
	"open":      ActionEnter,
	"up":        ActionUp,
	"..":        ActionUp,
	"root":      ActionChooseRoot,
	"storage":   ActionStorage,
	"switch":    ActionSwitchVolume,
	"volumes":   ActionVolumes,
	"sethome":   ActionSetHome,
	"home":      ActionHome,
	"clearhome": ActionClearHome,
	"grants":    ActionGrants,
	"revoke":    ActionRevoke,
	"find":      ActionSearch,
	"search":    ActionSearch,
	"cancel":    ActionCancel,
	"help":      ActionHelp,
	"?":         ActionHelp,
	"quit":      ActionQuit,
	"exit":      ActionQuit,
}

const helpText = `commands:
  ls                 list the current folder
  <n> | cd <n>       enter folder n or open document n
  up | ..            go to the parent folder
  root <path|uri>    choose a folder or document tree as root
  storage            open the first storage volume
  switch             cycle to the next storage volume
  volumes            list storage volumes
  sethome | home     remember / return to the current folder
  clearhome          forget home
  grants             list document trees with read access
  revoke <n|uri>     drop read access to a document tree
  find <text>        search below home (or the root)
  cancel             stop the running search
  quit`

// ParseCommand parses one input line. A bare number enters that entry.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	if n, err := strconv.Atoi(word); err == nil {
		return Command{Action: ActionEnter, Index: n - 1}, nil
	}

	action, ok := commandWords[strings.ToLower(word)]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q (try help)", word)
	}
	cmd := Command{Action: action, Arg: rest}

	switch action {
	case ActionEnter:
		n, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, fmt.Errorf("%s needs an entry number", word)
		}
		cmd.Index = n - 1
		cmd.Arg = ""
	case ActionChooseRoot, ActionSearch, ActionRevoke:
		if rest == "" {
			return Command{}, fmt.Errorf("%s needs an argument", word)
		}
	}
	return cmd, nil
}

// Shell drives a Browser from line input. Search results are delivered
// asynchronously and printed as they arrive.
type Shell struct {
	browser *Browser
	in      io.Reader
	out     io.Writer
}

func NewShell(b *Browser, in io.Reader, out io.Writer) *Shell {
	return &Shell{browser: b, in: in, out: out}
}

// Run processes commands until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
		close(lines)
	}()

	s.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp := <-s.browser.SearchResponses():
			v, ok, err := s.browser.ApplySearch(resp)
			if ok {
				s.render(v, err)
				s.prompt()
			}
		case line, open := <-lines:
			if !open {
				if err := <-readErr; err != nil {
					return err
				}
				return nil
			}
			if quit := s.handleLine(ctx, line); quit {
				return nil
			}
			s.prompt()
		}
	}
}

func (s *Shell) handleLine(ctx context.Context, line string) (quit bool) {
	cmd, err := ParseCommand(line)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	debug.Log(debug.APP, "Shell: action=%d index=%d arg=%q", cmd.Action, cmd.Index, cmd.Arg)
	return s.dispatch(ctx, cmd)
}

func (s *Shell) dispatch(ctx context.Context, cmd Command) (quit bool) {
	var (
		v   View
		err error
	)
	switch cmd.Action {
	case ActionNone:
		return false
	case ActionList:
		v, err = s.browser.Refresh(ctx)
	case ActionEnter:
		v, err = s.browser.Enter(ctx, cmd.Index)
	case ActionUp:
		v, err = s.browser.Up(ctx)
	case ActionChooseRoot:
		v, err = s.browser.ChooseRoot(ctx, cmd.Arg)
	case ActionStorage:
		v, err = s.browser.OpenLegacyRoot(ctx)
	case ActionSwitchVolume:
		v, err = s.browser.SwitchVolume(ctx)
	case ActionVolumes:
		s.printVolumes(ctx)
		return false
	case ActionSetHome:
		v, err = s.browser.SetHome(ctx)
	case ActionHome:
		v, err = s.browser.GoHome(ctx)
	case ActionClearHome:
		v, err = s.browser.ClearHome(ctx)
	case ActionGrants:
		s.printGrants(ctx)
		return false
	case ActionRevoke:
		v, err = s.revoke(ctx, cmd.Arg)
		if err == nil {
			fmt.Fprintln(s.out, v.Notice)
			return false
		}
	case ActionSearch:
		v, err = s.browser.Search(ctx, cmd.Arg)
		if err == nil {
			fmt.Fprintln(s.out, v.Notice)
			return false
		}
	case ActionCancel:
		v, err = s.browser.CancelSearch(ctx)
		fmt.Fprintln(s.out, v.Notice)
		return false
	case ActionHelp:
		fmt.Fprintln(s.out, helpText)
		return false
	case ActionQuit:
		return true
	}
	s.render(v, err)
	return false
}

func (s *Shell) printVolumes(ctx context.Context) {
	vols, err := s.browser.Volumes(ctx)
	if err != nil {
		fmt.Fprintln(s.out, Describe(err))
		return
	}
	if len(vols) == 0 {
		fmt.Fprintln(s.out, Describe(volume.ErrNoVolumesFound))
		return
	}
	for _, v := range vols {
		fmt.Fprintf(s.out, "%2d. %s\n", v.Index+1, v)
	}
}

func (s *Shell) printGrants(ctx context.Context) {
	grants, err := s.browser.Grants(ctx)
	if err != nil {
		fmt.Fprintln(s.out, Describe(err))
		return
	}
	if len(grants) == 0 {
		fmt.Fprintln(s.out, "No document trees granted")
		return
	}
	for i, g := range grants {
		fmt.Fprintf(s.out, "%2d. %s\n", i+1, g)
	}
}

// revoke accepts a tree uri or a number from the grants listing.
func (s *Shell) revoke(ctx context.Context, arg string) (View, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return s.browser.RevokeGrant(ctx, arg)
	}
	grants, err := s.browser.Grants(ctx)
	if err != nil {
		return View{}, err
	}
	if n < 1 || n > len(grants) {
		return View{}, fmt.Errorf("%w: %d", ErrInvalidEntry, n)
	}
	return s.browser.RevokeGrant(ctx, grants[n-1])
}

// render prints a view, or only the error message when the operation
// failed without changing what is shown.
func (s *Shell) render(v View, err error) {
	if err != nil {
		fmt.Fprintln(s.out, Describe(err))
		return
	}
	fmt.Fprintf(s.out, "== %s ==\n", v.Title)
	for i, e := range v.Entries {
		marker := ""
		if e.IsDir {
			marker = "/"
		}
		fmt.Fprintf(s.out, "%4d. %s%s\n", i+1, e.Name, marker)
	}
	if v.State != StateUninitialized {
		fmt.Fprintf(s.out, "(%s entries)\n", humanize.Comma(int64(len(v.Entries))))
	}
	if v.Notice != "" {
		fmt.Fprintln(s.out, v.Notice)
	}
}

func (s *Shell) prompt() {
	fmt.Fprint(s.out, "> ")
}
