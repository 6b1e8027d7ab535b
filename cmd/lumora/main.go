package main

import (
	"os"

	lumoraerrors "github.com/quintant/lumora/internal/errors"
	"github.com/quintant/lumora/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", map[string]interface{}{
			"error": err.Error(),
		})

		code := 1
		if lerr, ok := err.(*lumoraerrors.LumoraError); ok {
			code = lumoraerrors.ExitCode(lerr.Code)
		}
		os.Exit(code)
	}
}
