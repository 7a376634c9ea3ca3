package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	pb "github.com/schollz/progressbar/v3"

	"github.com/matzehuels/nugetfetch/pkg/integrations"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressBar returns a download progress sink drawing on w, or nil when w
// is not a terminal. Unknown lengths get a spinner-style bar.
func progressBar(w io.Writer, desc string) integrations.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	return func(total int64) io.WriteCloser {
		if total <= 0 {
			total = -1
		}
		return pb.NewOptions64(
			total,
			pb.OptionSetDescription(desc),
			pb.OptionSetWriter(w),
			pb.OptionSetWidth(20),
			pb.OptionThrottle(65*time.Millisecond),
			pb.OptionShowBytes(true),
			pb.OptionSetTheme(
				pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
			),
			pb.OptionOnCompletion(func() {
				fmt.Fprint(w, "\n")
			}),
			pb.OptionSpinnerType(14),
		)
	}
}
