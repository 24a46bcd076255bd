package eventclient

import "errors"

var (
	ErrTransportClosed    = errors.New("eventclient: transport is closed")
	ErrInvalidDestination = errors.New("eventclient: invalid destination")
	ErrResolve            = errors.New("eventclient: resolve failed")
	ErrNoDatagrams        = errors.New("eventclient: nothing to send")
	ErrIconUnavailable    = errors.New("eventclient: icon image unavailable")
)
