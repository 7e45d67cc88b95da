package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// frameTimeLayout is how frame timestamps are printed.
const frameTimeLayout = "2006-01-02 15:04:05"

var (
	framesLimit int
	framesJSON  bool
	framesSave  bool
)

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List and navigate recorded frames",
}

var framesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List frames around the current position",
	Long: `Lists frames around the current timeline position.

The position is restored from the last session when it is recent enough,
otherwise the newest frames are shown.`,
	Args: cobra.NoArgs,
	RunE: runFramesList,
}

var framesJumpCmd = &cobra.Command{
	Use:   "jump [time]",
	Short: "Jump to a point in time and list the frames around it",
	Long: `Jumps the timeline to the frame nearest a point in time.

Accepted forms:
  2026-03-01T09:30:00Z   RFC 3339
  2026-03-01 09:30[:05]  local date and time
  2026-03-01             local midnight
  09:30[:05]             today, local time
  -45m                   relative to now
  now`,
	Args: cobra.ExactArgs(1),
	RunE: runFramesJump,
}

func init() {
	for _, c := range []*cobra.Command{framesListCmd, framesJumpCmd} {
		c.Flags().IntVarP(&framesLimit, "limit", "n", 10, "maximum number of frames to show")
		c.Flags().BoolVar(&framesJSON, "json", false, "output frames as JSON")
	}
	framesJumpCmd.Flags().BoolVar(&framesSave, "save", false, "resume from this position next time")
	framesCmd.AddCommand(framesListCmd)
	framesCmd.AddCommand(framesJumpCmd)
	rootCmd.AddCommand(framesCmd)
}

func runFramesList(cmd *cobra.Command, _ []string) error {
	if err := requireTimeline(); err != nil {
		return err
	}
	if err := ensureLoaded(cmd.Context()); err != nil {
		return err
	}
	return outputFrames(cmd)
}

func runFramesJump(cmd *cobra.Command, args []string) error {
	if err := requireTimeline(); err != nil {
		return err
	}

	t, err := domain.ParseTimeRef(args[0], time.Now())
	if err != nil {
		return err
	}
	if err := timelineService.JumpToTimestamp(cmd.Context(), t); err != nil {
		return fmt.Errorf("jump to %s: %w", t.Format(frameTimeLayout), err)
	}
	if framesSave {
		if err := timelineService.SavePosition(cmd.Context()); err != nil {
			return fmt.Errorf("saving position: %w", err)
		}
	}
	return outputFrames(cmd)
}

// visibleFrames returns up to framesLimit frames centred on the current one
// and the index of the current frame within them.
func visibleFrames() ([]domain.FrameRef, int) {
	frames := timelineService.Frames()
	cur := timelineService.CurrentIndex()
	if framesLimit <= 0 || framesLimit >= len(frames) {
		return frames, cur
	}
	lo := max(cur-framesLimit/2, 0)
	hi := min(lo+framesLimit, len(frames))
	lo = max(hi-framesLimit, 0)
	return frames[lo:hi], cur - lo
}

func outputFrames(cmd *cobra.Command) error {
	frames, cur := visibleFrames()

	if framesJSON {
		data, err := json.MarshalIndent(frames, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal frames: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(frames) == 0 {
		cmd.Println("No frames recorded.")
		return nil
	}

	for i, f := range frames {
		marker := " "
		if i == cur {
			marker = ">"
		}
		cmd.Printf("%s %s  %s  %s\n", marker, f.Timestamp.Local().Format(frameTimeLayout), f.ID, f.SegmentID)
	}
	cmd.Printf("\n%d of %d loaded frames\n", len(frames), len(timelineService.Frames()))
	return nil
}
