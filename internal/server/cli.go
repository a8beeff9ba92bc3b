package server

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vyrodovalexey/avactions/internal/util"
)

// Exit codes returned by RunCLI.
const (
	ExitOK       = 0
	ExitNotFound = 1
	ExitError    = 2
)

// CLIRequest is a one-shot dispatch described on the command line.
type CLIRequest struct {
	Method string
	URI    string
	// Data is a url-encoded body.
	Data string
}

// RunCLI dispatches req and writes the response body to stdout. Diagnostics
// go to stderr.
func RunCLI(ctx context.Context, d Dispatcher, req CLIRequest, stdout, stderr io.Writer) int {
	ambient, err := AmbientFromArgs(req.Method, req.URI, req.Data)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitError
	}

	res, err := d.Dispatch(ctx, req.URI, ambient)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		if errors.Is(err, util.ErrNotFound) {
			return ExitNotFound
		}
		return ExitError
	}

	if _, err := stdout.Write(res.Request.Response.Body()); err != nil {
		return ExitError
	}
	return ExitOK
}
