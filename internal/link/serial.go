package link

import (
	"time"

	"github.com/tarm/serial"
)

// SerialDialer returns a Dialer that opens real serial ports at the given
// baud rate. The read timeout matches the poll quantum so Send's poll loop
// never blocks longer than one quantum on an idle port.
func SerialDialer(baud int) Dialer {
	return func(name string) (Port, error) {
		return serial.OpenPort(&serial.Config{
			Name:        name,
			Baud:        baud,
			ReadTimeout: pollQuantum,
		})
	}
}

// SettleDelay gives microcontroller boards time to reset after the port
// opens before the first command is written.
const SettleDelay = 2 * time.Second
