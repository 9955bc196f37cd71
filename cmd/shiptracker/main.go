package main

import (
	"shiptracker/cmd/shiptracker/commands"
	"shiptracker/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
