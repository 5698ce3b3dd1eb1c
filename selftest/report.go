package selftest

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/wippyai/bindptr/errors"
)

// DefaultReportName is the file name of the report under the path prefix.
const DefaultReportName = "unit-test-report.xml"

// Report collects the results of a suite run.
type Report struct {
	Started  time.Time
	Suite    string
	Results  []Result
	Duration time.Duration
	Rounds   int
}

// Passed returns the number of successful invocations.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed invocations.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil && !res.Skipped {
			n++
		}
	}
	return n
}

// Skipped returns the number of skipped invocations.
func (r *Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// OK reports whether no invocation failed.
func (r *Report) OK() bool {
	return r.Failed() == 0
}

// Failures returns the failed results.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil && !res.Skipped {
			out = append(out, res)
		}
	}
	return out
}

// JUnit-compatible document layout.
type xmlSuites struct {
	XMLName xml.Name   `xml:"testsuites"`
	Suites  []xmlSuite `xml:"testsuite"`
}

type xmlSuite struct {
	Name      string    `xml:"name,attr"`
	Timestamp string    `xml:"timestamp,attr"`
	Time      string    `xml:"time,attr"`
	Cases     []xmlCase `xml:"testcase"`
	Tests     int       `xml:"tests,attr"`
	Failures  int       `xml:"failures,attr"`
	Skipped   int       `xml:"skipped,attr"`
}

type xmlCase struct {
	Failure   *xmlMessage `xml:"failure,omitempty"`
	Skipped   *xmlMessage `xml:"skipped,omitempty"`
	Name      string      `xml:"name,attr"`
	ClassName string      `xml:"classname,attr"`
	Time      string      `xml:"time,attr"`
}

type xmlMessage struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}

// WriteXML writes the report as a JUnit XML document.
func (r *Report) WriteXML(w io.Writer) error {
	suite := xmlSuite{
		Name:      r.Suite,
		Timestamp: r.Started.UTC().Format(time.RFC3339),
		Time:      seconds(r.Duration),
		Tests:     len(r.Results),
		Failures:  r.Failed(),
		Skipped:   r.Skipped(),
	}

	for _, res := range r.Results {
		name := res.Name
		if r.Rounds > 1 {
			name = fmt.Sprintf("%s#%d", res.Name, res.Round)
		}
		c := xmlCase{
			Name:      name,
			ClassName: r.Suite,
			Time:      seconds(res.Duration),
		}
		switch {
		case res.Skipped:
			c.Skipped = &xmlMessage{Message: res.Err.Error()}
		case res.Err != nil:
			c.Failure = &xmlMessage{Message: res.Err.Error(), Text: fmt.Sprintf("%+v", res.Err)}
		}
		suite.Cases = append(suite.Cases, c)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(xmlSuites{Suites: []xmlSuite{suite}}); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes the XML report to path, creating parent directories.
func (r *Report) WriteFile(path string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "create report directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "create report")
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := r.WriteXML(f); err != nil {
		return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "write report")
	}
	return nil
}
