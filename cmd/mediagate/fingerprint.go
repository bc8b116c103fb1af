package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediagate"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <path> [path...]",
	Short: "Print the category and cache validator for object paths",
	Long: `Print the classification and cache validator token for one or more
object paths, exactly as the file route computes them.

Examples:
  mediagate fingerprint segments/42/last_frame.png
  mediagate fingerprint clip.mp4 model.safetensors`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		path := strings.TrimPrefix(arg, "/")
		fmt.Printf("%s\t%s\t%s\n", mediagate.Classify(path), mediagate.Fingerprint(path), path)
	}
	return nil
}
