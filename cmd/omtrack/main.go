// omtrack is a progression tracker: it parses a free-form progression log
// and turns it into statistics, rates, and breakthrough predictions.
package main

import (
	"github.com/hargabyte/omtrack/internal/cmd"
)

func main() {
	cmd.Execute()
}
