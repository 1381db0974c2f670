package serial

import (
	"fmt"
	"log/slog"
	"time"

	bugserial "go.bug.st/serial"
)

// PortConfig is the UART framing.
type PortConfig struct {
	Device   string
	Parity   string
	Baud     int
	DataBits int
	StopBits int
}

// Mode converts the framing into the driver's mode. No flow control is set.
func (c PortConfig) Mode() (*bugserial.Mode, error) {
	mode := &bugserial.Mode{
		BaudRate: c.Baud,
		DataBits: c.DataBits,
	}

	switch c.Parity {
	case "", "none":
		mode.Parity = bugserial.NoParity
	case "even":
		mode.Parity = bugserial.EvenParity
	case "odd":
		mode.Parity = bugserial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", c.Parity)
	}

	switch c.StopBits {
	case 0, 1:
		mode.StopBits = bugserial.OneStopBit
	case 2:
		mode.StopBits = bugserial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", c.StopBits)
	}

	return mode, nil
}

// OpenReporter opens the UART and returns a reporter that drains the port
// on Flush. The caller closes it.
func OpenReporter(cfg PortConfig, flushDelay time.Duration, logger *slog.Logger) (*Reporter, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	port, err := bugserial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}

	logger.Debug("serial port open", "device", cfg.Device, "baud", cfg.Baud,
		"framing", fmt.Sprintf("%d%s%d", cfg.DataBits, parityLetter(cfg.Parity), cfg.StopBits))

	return NewReporter(port,
		WithDrainer(port.Drain),
		WithFlushDelay(flushDelay),
		WithLogger(logger),
	), nil
}

func parityLetter(p string) string {
	switch p {
	case "even":
		return "E"
	case "odd":
		return "O"
	default:
		return "N"
	}
}
