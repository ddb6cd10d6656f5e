package interfaces

import (
	"bytes"
	"strings"
	"testing"
)

func TestWorkflowLoggerCommands(t *testing.T) {
	var buf bytes.Buffer
	log := &WorkflowLogger{Verbose: false, Out: &buf}

	log.Info("plain message")
	log.Warning("something odd")
	log.Error("something broke")
	log.Group("a section")
	log.EndGroup()

	output := buf.String()
	for _, expected := range []string{
		"plain message\n",
		"::warning::something odd\n",
		"::error::something broke\n",
		"::group::a section\n",
		"::endgroup::\n",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing %q:\n%s", expected, output)
		}
	}
}

func TestWorkflowLoggerDebugRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := &WorkflowLogger{Verbose: false, Out: &buf}
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output emitted without verbose: %q", buf.String())
	}

	log.Verbose = true
	log.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug output missing in verbose mode")
	}
}
