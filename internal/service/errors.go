package service

import (
	"errors"

	"stylequiz/internal/poller"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrInvalidOption   = errors.New("invalid option for question")
	ErrNoPhotos        = errors.New("no photos provided")
	ErrUnknownStep     = errors.New("unknown color analysis step")
	ErrMissingURL      = errors.New("image url is required")
	ErrNoColorResults  = errors.New("no color analysis results yet")
	ErrJobNotFound     = errors.New("job not found")
	ErrResultNotReady  = errors.New("job result not ready")
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

// Error kinds reported on failed jobs
const (
	KindConfiguration = "configuration"
	KindTransport     = "transport"
	KindProtocol      = "protocol"
	KindRemote        = "remote"
	KindTimeout       = "timeout"
	KindInternal      = "internal"
)

const timeoutMessage = "the analysis took too long, please try again"

// Classify maps a job error to its kind and the message shown to the user.
// Both timeout flavours share one retry message.
func Classify(err error) (kind, message string) {
	var remote *poller.RemoteError
	var transport *poller.TransportError
	switch {
	case errors.Is(err, poller.ErrNotConfigured):
		return KindConfiguration, err.Error()
	case poller.IsTimeout(err):
		return KindTimeout, timeoutMessage
	case errors.As(err, &remote):
		return KindRemote, remote.Error()
	case poller.IsProtocol(err):
		return KindProtocol, poller.ErrUnexpectedResponse.Error()
	case errors.As(err, &transport):
		if transport.StatusCode != 0 {
			return KindTransport, err.Error()
		}
		return KindTransport, "could not reach the analysis service"
	}
	return KindInternal, "failed to process the request"
}
