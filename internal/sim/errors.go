package sim

import "errors"

var (
	// ErrDeliveryDropped reports that a cell mailbox refused a tick. The
	// canvas recovers by evicting the cell; it is never returned to callers.
	ErrDeliveryDropped = errors.New("cell mailbox refused delivery")
	// ErrInvalidState reports a request the canvas cannot honour in its
	// current lifecycle state, such as spawning after shutdown.
	ErrInvalidState = errors.New("invalid canvas state")
	// ErrAllocation reports that a new cell could not be created.
	ErrAllocation = errors.New("cell allocation failed")
	// ErrNumericDomain reports NaN or infinite motion inputs. The affected
	// cell keeps its previous position for the frame.
	ErrNumericDomain = errors.New("non-finite motion input")
)
