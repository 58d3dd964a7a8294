package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one sweep or to its skipped examples.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one threshold configuration or one skipped example.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure marks a configuration below the accuracy gate.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError marks an example that could not be routed.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a test as skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a sweep outcome to JUnit XML. Every threshold
// configuration is a test case that fails when its accuracy is below
// minAccuracy; skipped examples are reported as errors in a second suite.
func ConvertToJUnit(outcome *models.SweepOutcome, minAccuracy float64) *JUnitTestSuites {
	durationSec := float64(outcome.DurationMs) / 1000.0
	timestamp := outcome.Timestamp.Format(time.RFC3339)

	sweep := JUnitTestSuite{
		Name:      "thinkroute.sweep",
		Tests:     len(outcome.Results),
		Time:      durationSec,
		Timestamp: timestamp,
		Properties: []JUnitProperty{
			{Name: "run_id", Value: outcome.RunID},
			{Name: "oracle", Value: outcome.Oracle},
			{Name: "examples", Value: fmt.Sprintf("%d", outcome.Examples)},
			{Name: "min_accuracy", Value: fmt.Sprintf("%.4f", minAccuracy)},
		},
	}
	if best := outcome.Best(); best != nil {
		sweep.Properties = append(sweep.Properties, JUnitProperty{Name: "best_accuracy", Value: fmt.Sprintf("%.4f", best.Accuracy)})
	}

	for _, r := range outcome.Results {
		tc := JUnitTestCase{
			Name:      r.Thresholds.String(),
			Classname: "thresholds",
			Time:      r.MeanLatencyMs / 1000.0,
		}
		if r.Accuracy < minAccuracy {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("accuracy %.4f below %.4f", r.Accuracy, minAccuracy),
				Type:    "AccuracyGate",
				Body:    formatOffDiagonal(r.Confusion),
			}
			sweep.Failures++
		}
		sweep.TestCases = append(sweep.TestCases, tc)
	}

	suites := &JUnitTestSuites{
		Tests:      sweep.Tests,
		Failures:   sweep.Failures,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{sweep},
	}

	if len(outcome.Skipped) > 0 {
		skipped := JUnitTestSuite{
			Name:      "thinkroute.skipped",
			Tests:     len(outcome.Skipped),
			Errors:    len(outcome.Skipped),
			Timestamp: timestamp,
		}
		for _, s := range outcome.Skipped {
			skipped.TestCases = append(skipped.TestCases, JUnitTestCase{
				Name:      s.ExampleID,
				Classname: string(s.ExpectedMode),
				Error:     &JUnitError{Message: s.Error, Type: string(s.Kind)},
			})
		}
		suites.Tests += skipped.Tests
		suites.Errors += skipped.Errors
		suites.TestSuites = append(suites.TestSuites, skipped)
	}

	return suites
}

// formatOffDiagonal lists the misroutings, one per line.
func formatOffDiagonal(cm models.ConfusionMatrix) string {
	var result string
	for _, e := range cm.OffDiagonal() {
		result += fmt.Sprintf("[MISROUTED] %s -> %s: %d\n", e.Expected, e.Predicted, e.Count)
	}
	return result
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(outcome *models.SweepOutcome, minAccuracy float64, path string) error {
	suites := ConvertToJUnit(outcome, minAccuracy)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
