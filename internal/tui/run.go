package tui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/ptyglass/ptyglass/internal/config"
)

func termSizeOpts() []tea.ProgramOption {
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	return opts
}

// Run runs the viewer and blocks until exit. onStart, when non-nil,
// receives the program before it runs so callers can inject messages
// (config reloads, a touch bridge) via Program.Send.
func Run(cfg config.Config, onStart func(*tea.Program)) error {
	model := New(cfg, nil)
	p := tea.NewProgram(model, termSizeOpts()...)
	if onStart != nil {
		onStart(p)
	}
	_, err := p.Run()
	return err
}
