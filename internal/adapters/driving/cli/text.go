package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

var textWidth int

var textCmd = &cobra.Command{
	Use:   "text [frame-id]",
	Short: "Print the text recognised on a frame",
	Long: `Prints the text recognised on a frame in reading order, one visual
line per line. Without a frame ID the current frame is used.

Output is wrapped at the terminal width; use --width to override it or
--width 0 to disable wrapping.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runText,
}

func init() {
	textCmd.Flags().IntVarP(&textWidth, "width", "w", -1, "wrap width (-1 = terminal width, 0 = no wrapping)")
	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	if err := requireTimeline(); err != nil {
		return err
	}

	var id domain.FrameID
	if len(args) == 1 {
		id = domain.FrameID(args[0])
	} else {
		if err := ensureLoaded(cmd.Context()); err != nil {
			return err
		}
		cur, ok := timelineService.Current()
		if !ok {
			cmd.Println("No frames recorded.")
			return nil
		}
		id = cur.ID
	}

	text, err := timelineService.FrameText(cmd.Context(), id)
	if err != nil {
		return err
	}
	if text == "" {
		cmd.Println("No text recognised on this frame.")
		return nil
	}

	cmd.Println(wrapText(text, outputWidth()))
	return nil
}

// outputWidth resolves the wrap width from the flag or the terminal.
func outputWidth() int {
	if textWidth >= 0 {
		return textWidth
	}
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// wrapText wraps each line at width on word boundaries. Words longer than
// width are left intact. A width of zero disables wrapping.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		var cur strings.Builder
		for _, word := range strings.Fields(line) {
			if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(word)) > width {
				out = append(out, cur.String())
				cur.Reset()
			}
			if cur.Len() > 0 {
				cur.WriteByte(' ')
			}
			cur.WriteString(word)
		}
		out = append(out, cur.String())
	}
	return strings.Join(out, "\n")
}
