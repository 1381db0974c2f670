package serial

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugserial "go.bug.st/serial"
)

func TestFormatLine(t *testing.T) {
	assert.Equal(t, "QR:HELLO\r\n", FormatLine("HELLO"))
	assert.Equal(t, "QR:\r\n", FormatLine(""))

	long := strings.Repeat("x", 200)
	line := FormatLine(long)
	assert.Equal(t, "QR:"+strings.Repeat("x", 150)+"\r\n", line)

	// 149 ASCII bytes followed by a 3-byte rune: the rune would cross the limit.
	mixed := strings.Repeat("a", 149) + "€" + "tail"
	line = FormatLine(mixed)
	payload := strings.TrimSuffix(strings.TrimPrefix(line, "QR:"), "\r\n")
	assert.Len(t, payload, 149)
	assert.True(t, utf8.ValidString(payload))
}

func TestFormatLine_SingleLine(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "crlf", payload: "A\r\nQR:FORGED", want: "QR:A  QR:FORGED\r\n"},
		{name: "bare lf", payload: "line1\nline2", want: "QR:line1 line2\r\n"},
		{name: "nul ends payload", payload: "SKU-1\x00hidden", want: "QR:SKU-1\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLine(tt.payload))
		})
	}
}

func TestReporter_SendLineKeepsOneLinePerSymbol(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).SendLine("A\r\nQR:FORGED"))

	assert.Equal(t, "QR:A  QR:FORGED\r\n", buf.String())
	assert.Equal(t, 1, strings.Count(buf.String(), LineTerminator))
	assert.True(t, strings.HasPrefix(buf.String(), LinePrefix))
}

func TestReporter_SendLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	require.NoError(t, r.SendLine("A"))
	require.NoError(t, r.SendLine("B"))

	assert.Equal(t, "QR:A\r\nQR:B\r\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("uart fifo overrun")
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestReporter_SendLineErrors(t *testing.T) {
	err := NewReporter(failingWriter{}).SendLine("HELLO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uart fifo overrun")

	err = NewReporter(shortWriter{}).SendLine("HELLO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short write")
}

func TestReporter_Flush(t *testing.T) {
	var order []string
	r := NewReporter(&bytes.Buffer{},
		WithDrainer(func() error {
			order = append(order, "drain")
			return nil
		}),
		WithFlushDelay(50*time.Millisecond),
	)
	var slept time.Duration
	r.sleep = func(d time.Duration) {
		order = append(order, "sleep")
		slept = d
	}

	require.NoError(t, r.Flush())
	assert.Equal(t, []string{"drain", "sleep"}, order)
	assert.Equal(t, 50*time.Millisecond, slept)
}

func TestReporter_FlushDrainErrorStillWaits(t *testing.T) {
	r := NewReporter(&bytes.Buffer{},
		WithDrainer(func() error { return errors.New("tcdrain: interrupted") }),
		WithFlushDelay(time.Millisecond),
	)
	waited := false
	r.sleep = func(time.Duration) { waited = true }

	err := r.Flush()
	require.Error(t, err)
	assert.True(t, waited)
}

func TestPortConfig_Mode(t *testing.T) {
	mode, err := PortConfig{Baud: 115200, DataBits: 8, Parity: "none", StopBits: 1}.Mode()
	require.NoError(t, err)
	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, bugserial.NoParity, mode.Parity)
	assert.Equal(t, bugserial.OneStopBit, mode.StopBits)

	mode, err = PortConfig{Baud: 9600, DataBits: 7, Parity: "even", StopBits: 2}.Mode()
	require.NoError(t, err)
	assert.Equal(t, bugserial.EvenParity, mode.Parity)
	assert.Equal(t, bugserial.TwoStopBits, mode.StopBits)

	_, err = PortConfig{Parity: "mark"}.Mode()
	assert.Error(t, err)

	_, err = PortConfig{StopBits: 3}.Mode()
	assert.Error(t, err)
}
