package main

import (
	"steamdeals-backend/cmd/steamdeals/commands"
	"steamdeals-backend/lib/configutil"
	"steamdeals-backend/lib/serviceutil"
)

func main() {
	configutil.LoadDotenv()

	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
