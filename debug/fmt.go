// Package debug formats SCARF frames for trace output.
package debug

import (
	"fmt"

	"github.com/knieriem/scarf"
)

// FormatFrame returns a line describing frame, separating the
// header, consisting of the slave ID and an address of width bytes,
// from the payload. Frames shorter than a header are printed as is.
func FormatFrame(msgDir string, frame []byte, width int, err error, ncName string) string {
	s := ""
	if msgDir != "" {
		s += msgDir + " "
	}
	s += ncName
	n := len(frame)
	hl := scarf.HeaderLen(width)
	if width < 1 || n < hl {
		if n == 0 {
			s += " [0]"
		} else {
			s += fmt.Sprintf(" [%d] % x", n, frame)
		}
	} else {
		h, _ := scarf.DecodeHeader(frame, width)
		s += fmt.Sprintf(" [%d] %v (% x)", n-hl, h, frame[:hl])
		if n > hl {
			s += fmt.Sprintf(" % x", frame[hl:])
		}
	}
	if err != nil {
		s += " error: " + err.Error()
	}
	return s
}
