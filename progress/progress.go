package progress

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/minio/pkg/console"
)

const (
	countedTemplate   = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }}`
	uncountedTemplate = `{{string . "prefix"}} {{counters . }} {{speed . }} {{etime . }}`
)

// ProgressBar wrapper structure
type ProgressBar struct {
	*pb.ProgressBar
}

// NewProgressBar starts a progress bar for total units of work. A total of 0 means the amount of work
// is not known up front (duration-bound runs). Quiet bars count but never draw.
func NewProgressBar(caption string, total int64, quiet bool) *ProgressBar {
	console.SetColor("Bar", color.New(color.FgGreen, color.Bold))

	bar := pb.New64(total)
	bar.SetRefreshRate(time.Millisecond * 125)
	if total > 0 {
		bar.SetTemplateString(countedTemplate)
	} else {
		bar.SetTemplateString(uncountedTemplate)
	}
	bar.Set("prefix", caption)

	var out io.Writer = os.Stderr
	if quiet {
		out = io.Discard
	}
	bar.SetWriter(out)

	bar.Start()

	return &ProgressBar{ProgressBar: bar}
}

// SetCaption sets the caption of the progress bar.
func (p *ProgressBar) SetCaption(caption string) *ProgressBar {
	p.ProgressBar.Set("prefix", caption)
	return p
}
