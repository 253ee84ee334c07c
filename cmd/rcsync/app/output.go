package app

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/homemade/rcsync/sync"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func newReporter(cmd *cobra.Command, format string) sync.Reporter {
	if format == outputJSON {
		return jsonReporter{out: cmd.OutOrStdout()}
	}
	return textReporter{out: cmd.ErrOrStderr()}
}

// textReporter prints "updating nao...done" style lines.
type textReporter struct {
	out io.Writer
}

func (r textReporter) Begin(p sync.SiteProfile) {
	fmt.Fprintf(r.out, "updating %s...", p.ID)
}

func (r textReporter) Report(rep sync.Report) {
	fmt.Fprintln(r.out, rep.Message())
}

// jsonReporter prints one JSON object per site.
type jsonReporter struct {
	out io.Writer
}

func (r jsonReporter) Report(rep sync.Report) {
	line, err := rep.JSON()
	if err != nil {
		logrus.WithError(err).Errorln("Failed to render report")
		return
	}
	fmt.Fprintln(r.out, line)
}
