package execution

import (
	"errors"
	"strings"
	"testing"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleResult_Enter(t *testing.T) {
	r := NewCycleResult("1.0.0")
	assert.Equal(t, values.CycleState(""), r.Current())

	require.NoError(t, r.Enter(values.StateBootCheckingCause))
	require.NoError(t, r.Enter(values.StateIdleRearm))
	require.NoError(t, r.Enter(values.StateRearm))
	require.NoError(t, r.Enter(values.StateSleeping))

	assert.Equal(t, values.StateSleeping, r.Current())
	assert.Empty(t, r.Violations)
	assert.False(t, r.Scanned())
	assert.Equal(t, "idle", r.Outcome())
}

func TestCycleResult_EnterIllegal(t *testing.T) {
	r := NewCycleResult("1.0.0")

	err := r.Enter(values.StateScanInit)
	assert.Error(t, err)

	err = r.Enter(values.StateSleeping)
	assert.Error(t, err)

	// The trace keeps what actually happened.
	assert.Equal(t, []values.CycleState{values.StateScanInit, values.StateSleeping}, r.States)
	assert.Len(t, r.Violations, 2)
}

func TestCycleResult_FailKeepsFirst(t *testing.T) {
	r := NewCycleResult("1.0.0")
	r.Fail(values.ErrorKindCapture, errors.New("no frame"))
	r.Fail(values.ErrorKindInit, errors.New("later"))

	assert.Equal(t, values.ErrorKindCapture, r.ErrorKind)
	assert.Equal(t, "no frame", r.ErrorMessage)
}

func TestCycleResult_Outcome(t *testing.T) {
	scan := func() *CycleResult {
		r := NewCycleResult("1.0.0")
		require.NoError(t, r.Enter(values.StateBootCheckingCause))
		require.NoError(t, r.Enter(values.StateScanInit))
		return r
	}

	r := scan()
	assert.Equal(t, "no_symbols", r.Outcome())

	r = scan()
	r.AddSymbol(entities.NewFailedSymbol(0, values.DecodeChecksum, "ecc"))
	assert.Equal(t, "no_symbols", r.Outcome())
	r.AddSymbol(entities.NewDecodedSymbol(1, "A"))
	assert.Equal(t, "reported", r.Outcome())
	assert.Len(t, r.Decoded(), 1)

	r = scan()
	r.Fail(values.ErrorKindGeometry, errors.New("640x480"))
	assert.Equal(t, "abandoned", r.Outcome())
}

func TestCycleResult_Summary(t *testing.T) {
	r := NewCycleResult("1.0.0")
	require.NoError(t, r.Enter(values.StateBootCheckingCause))
	require.NoError(t, r.Enter(values.StateScanInit))
	r.Cause = values.WakeCauseExternalTrigger
	r.AddSymbol(entities.NewDecodedSymbol(0, "HELLO"))
	r.LinesSent = 1
	r.Armed = true
	r.Complete()

	s := r.Summary()
	assert.Equal(t, r.ID.String(), s.ID)
	assert.Equal(t, values.WakeCauseExternalTrigger, s.Cause)
	assert.Equal(t, "reported", s.Outcome)
	assert.Equal(t, 1, s.Symbols)
	assert.Equal(t, 1, s.Decoded)
	assert.Equal(t, 1, s.LinesSent)
	assert.True(t, s.Armed)
	assert.False(t, r.EndTime.Before(r.StartTime))
}

func TestTruncatePayload(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		limit     int
		want      string
		truncated bool
	}{
		{name: "short", in: "HELLO", limit: 150, want: "HELLO"},
		{name: "exact", in: strings.Repeat("a", 150), limit: 150, want: strings.Repeat("a", 150)},
		{name: "long", in: strings.Repeat("a", 200), limit: 150, want: strings.Repeat("a", 150), truncated: true},
		// "é" is two bytes; cutting at 3 would split the second one.
		{name: "rune boundary", in: "éé", limit: 3, want: "é", truncated: true},
		{name: "disabled", in: strings.Repeat("a", 200), limit: 0, want: strings.Repeat("a", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncatePayload(tt.in, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.truncated, truncated)
			if tt.limit > 0 {
				assert.LessOrEqual(t, len(got), tt.limit)
			}
		})
	}
}
