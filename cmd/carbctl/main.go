// Command carbctl is the command line companion of the CarbClarity bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(nil).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode separates rejected input from failures of the store or the network
func exitCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation {
		return 2
	}
	fmt.Fprintln(os.Stderr, "hint: run with -v for details")
	return 1
}
