package apitest

import (
	"encoding/xml"
	"fmt"
	"io"
)

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

// WriteJUnit writes the report as a JUnit XML document, one testsuite per group.
func (r Report) WriteJUnit(w io.Writer) error {
	doc := junitTestSuites{}
	index := map[string]int{}
	totals := []float64{}

	for _, res := range r.Results {
		i, ok := index[res.Group]
		if !ok {
			doc.Suites = append(doc.Suites, junitTestSuite{
				Name:      res.Group,
				Timestamp: r.Started.Format("2006-01-02T15:04:05"),
			})
			totals = append(totals, 0)
			i = len(doc.Suites) - 1
			index[res.Group] = i
		}

		s := &doc.Suites[i]
		tc := junitTestCase{
			ClassName: res.Group,
			Name:      res.Name,
			Time:      seconds(res.Duration.Seconds()),
		}

		if res.Err != nil {
			tc.Failure = &junitFailure{
				Message: res.Err.Error(),
				Type:    "AssertionError",
				Text:    res.Err.Error(),
			}
			s.Failures++
		}

		s.Tests++
		s.Cases = append(s.Cases, tc)
		totals[i] += res.Duration.Seconds()
	}

	for i := range doc.Suites {
		doc.Suites[i].Time = seconds(totals[i])
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode junit report: %w", err)
	}

	return enc.Flush()
}

func seconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
