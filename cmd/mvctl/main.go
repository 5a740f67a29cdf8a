// Command mvctl drives a running companion server from the terminal: it lists
// venues, toggles bookmarks through the optimistic synchronizer, prints tour
// schedules and route previews, and decodes polylines.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
