// rapidsafe is the device agent: local PINs and contacts, the lock screen
// and live location streaming for a raised alert.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
