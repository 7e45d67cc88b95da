package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui"
	"github.com/custodia-labs/rewind/internal/logger"
)

// errNoTerminal is returned when the TUI is started without a terminal.
var errNoTerminal = errors.New("the TUI needs an interactive terminal; use 'rewind frames' instead")

// isTerminal reports whether stdin and stdout are terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive timeline browser.

The TUI resumes where the last session left off when that was recent
enough, otherwise it opens on the newest frame.

Controls:
  ←/h, →/l   - Step one frame older / newer
  pgup, pgdn - Step a page
  g, G       - First / last loaded frame
  /          - Jump to a time
  Enter      - Show the frame's text
  d          - Delete the current frame
  s          - Settings
  ?          - Toggle help
  q          - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if err := requireTimeline(); err != nil {
		return err
	}
	if !isTerminal() {
		return errNoTerminal
	}

	app, err := tui.NewApp(tui.NewPorts(timelineService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	// Set up context from command
	app.WithContext(cmd.Context())

	stop := startScheduler(cmd.Context())

	// Create and run the bubbletea program
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, runErr := p.Run()
	stop()

	// resume here next time, even when the program failed
	if err := timelineService.SavePosition(cmd.Context()); err != nil {
		logger.For("cli").Warn("saving position failed", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
