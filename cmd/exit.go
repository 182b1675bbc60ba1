package cmd

import (
	"errors"

	"github.com/AnyUserName/hueswap/internal/chroma"
	"github.com/AnyUserName/hueswap/internal/config"
	"github.com/AnyUserName/hueswap/internal/encoder"
	"github.com/AnyUserName/hueswap/internal/pipeline"
)

// Process exit codes by error kind.
const (
	ExitOK = iota
	ExitFailure
	ExitInput
	ExitDecode
	ExitEstimation
	ExitEncode
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInput):
		return ExitInput
	case errors.Is(err, pipeline.ErrDecode):
		return ExitDecode
	case errors.Is(err, chroma.ErrEmptyImage):
		return ExitEstimation
	case errors.Is(err, encoder.ErrEncode):
		return ExitEncode
	default:
		return ExitFailure
	}
}
