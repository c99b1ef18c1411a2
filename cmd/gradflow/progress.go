package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// newEpochBar returns a progress bar counting epochs, and the callback that
// advances it with the epoch loss.
func newEpochBar(epochs int, quiet bool) (*progressbar.ProgressBar, func(epoch int, loss float64)) {
	if quiet {
		return nil, func(int, float64) {}
	}
	bar := progressbar.NewOptions(epochs,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("epochs"),
		progressbar.OptionClearOnFinish(),
	)
	return bar, func(_ int, loss float64) {
		bar.Describe(fmt.Sprintf("loss %-10.4g", loss))
		_ = bar.Add(1)
	}
}
