package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportedCycle builds a finished scan that reported one of two symbols.
func reportedCycle() *execution.CycleResult {
	r := execution.NewCycleResult("0.1.0")
	r.Cause = values.WakeCauseExternalTrigger
	for _, s := range []values.CycleState{
		values.StateBootCheckingCause, values.StateScanInit, values.StateScanCapture,
		values.StateScanDecode, values.StateScanReport, values.StateScanTeardown,
		values.StateRearm, values.StateSleeping,
	} {
		_ = r.Enter(s)
	}
	r.AddSymbol(entities.NewDecodedSymbol(0, "HELLO"))
	r.AddSymbol(entities.NewFailedSymbol(1, values.DecodeChecksum, "ecc"))
	r.LinesSent = 1
	r.Armed = true
	r.Complete()
	return r
}

func abandonedCycle() *execution.CycleResult {
	r := execution.NewCycleResult("0.1.0")
	r.Cause = values.WakeCauseExternalTrigger
	for _, s := range []values.CycleState{
		values.StateBootCheckingCause, values.StateScanInit, values.StateScanTeardown,
		values.StateRearm, values.StateSleeping,
	} {
		_ = r.Enter(s)
	}
	r.Fail(values.ErrorKindInit, errors.New("sensor ov2640 init failed: sensor not detected"))
	r.ArmError = "rtc gpio hold failed"
	r.Complete()
	return r
}

func TestTableFormatter_FormatCycles(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.FormatCycles([]*execution.CycleResult{reportedCycle(), abandonedCycle()}))

	out := buf.String()
	assert.Contains(t, out, `#0 "HELLO"`)
	assert.Contains(t, out, "#1 checksum ecc")
	assert.Contains(t, out, "[init] sensor ov2640 init failed")
	assert.Contains(t, out, "Wake source not armed: rtc gpio hold failed")
	assert.Contains(t, out, "Total: 2 cycles, 1 reported, 1 abandoned, 1 lines sent")
	assert.NotContains(t, out, "\033[")
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(&buf).FormatCycles(nil))
	assert.Equal(t, "No cycles recorded.\n", buf.String())
}

func TestTableFormatter_FormatStatus(t *testing.T) {
	spec := entities.DefaultWakeArmSpec()
	summary := reportedCycle().Summary()

	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false
	require.NoError(t, f.FormatStatus(&NodeStatus{
		NodeID:          "dock-7",
		StateDir:        "/tmp/state",
		FirmwareVersion: "0.1.0",
		BootCount:       3,
		Sleeping:        true,
		SleptAt:         time.Now(),
		Armed:           &spec,
		PinLevel:        "high",
		Triggered:       true,
		History:         []execution.CycleSummary{summary},
	}))

	out := buf.String()
	assert.Contains(t, out, "Node: dock-7")
	assert.Contains(t, out, "Boots: 3")
	assert.Contains(t, out, "gpio13 trigger=high pull=down hold=true")
	assert.Contains(t, out, "Trigger pending")
	assert.Contains(t, out, summary.ID[:8])
	assert.Contains(t, out, "symbols=1/2")
}

func TestTableFormatter_StatusNeverBooted(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false
	require.NoError(t, f.FormatStatus(&NodeStatus{NodeID: "n", StateDir: "/s"}))
	assert.Contains(t, buf.String(), "Never booted.")
}

func TestJSONFormatter_FormatCycles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, true).FormatCycles([]*execution.CycleResult{reportedCycle()}))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "external_trigger", decoded[0]["wake_cause"])
	assert.Equal(t, float64(1), decoded[0]["lines_sent"])
	assert.Len(t, decoded[0]["symbols"], 2)
	assert.Len(t, decoded[0]["states"], 8)
}

func TestJSONFormatter_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, false).FormatCycles(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_FormatStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(&buf).FormatStatus(&NodeStatus{
		NodeID:    "dock-7",
		StateDir:  "/tmp/state",
		BootCount: 2,
		PinLevel:  "low",
	}))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "dock-7", decoded["node_id"])
	assert.Equal(t, "low", decoded["pin_level"])
}
