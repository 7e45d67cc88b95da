package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import captured frames from a directory",
	Long: `Scans a capture directory for frames and indexes them.

Images (.png, .jpg, .jpeg) become one frame each; every directory is a
recording segment. An optional <name>.ocr.json sidecar next to an image
holds the recognised text as [{"x","y","w","h","text"}] with coordinates
normalised to the image. Capture times come from a YYYYMMDD-HHMMSS file
name stem or, failing that, the file modification time.

Videos (.mp4, .mkv, .mov, .webm, .avi) with a <name>.frames.json manifest are
imported as one segment; their pixels are extracted with ffmpeg on demand.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if importService == nil {
		return errors.New("import service not configured")
	}

	result, err := importService.Import(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if importJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Imported %d frames (%d text nodes) from %d segments in %s\n",
		result.Frames, result.Nodes, result.Segments, result.Duration.Round(time.Millisecond))
	if result.Skipped > 0 {
		cmd.Printf("Skipped %d files\n", result.Skipped)
	}
	return nil
}
