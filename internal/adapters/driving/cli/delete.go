package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [frame-id...]",
	Short: "Delete frames",
	Long: `Deletes frames from the timeline and the frame database.

Each frame is located in the timeline first, so deleting a frame also
drops it from a saved resume position.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireTimeline(); err != nil {
		return err
	}

	ctx := cmd.Context()
	for _, arg := range args {
		id := domain.FrameID(arg)
		if err := timelineService.JumpToFrame(ctx, id); err != nil {
			return fmt.Errorf("locating frame %s: %w", id, err)
		}
		if err := timelineService.DeleteFrame(id); err != nil {
			return fmt.Errorf("deleting frame %s: %w", id, err)
		}
		cmd.Printf("Deleted %s\n", id)
	}

	if err := timelineService.SavePosition(ctx); err != nil {
		return fmt.Errorf("saving position: %w", err)
	}
	return nil
}
