package combat

import "time"

// TransferState is a session's position in the connection-transfer protocol.
type TransferState int

const (
	NotTransferring TransferState = iota
	TransferPending
	TransferResolved
)

// String returns a human-readable state label.
func (s TransferState) String() string {
	switch s {
	case NotTransferring:
		return "none"
	case TransferPending:
		return "pending"
	case TransferResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Transfer tracks one connection swap.
//
// Invariant: Deadline is non-zero iff State == TransferPending.
type Transfer struct {
	State    TransferState
	Deadline time.Time
	// FromConn is the connection id being replaced.
	FromConn string
}

// Begin moves to TransferPending with a deadline window after now.
// Beginning while already pending extends the deadline.
func (t *Transfer) Begin(now time.Time, window time.Duration, fromConn string) {
	t.State = TransferPending
	t.Deadline = now.Add(window)
	t.FromConn = fromConn
}

// Resolve completes a pending transfer.
//
// Postcondition: returns false when no transfer was pending.
func (t *Transfer) Resolve() bool {
	if t.State != TransferPending {
		return false
	}
	t.State = TransferResolved
	t.Deadline = time.Time{}
	return true
}

// Pending reports whether a transfer is in progress and its deadline has not passed.
func (t *Transfer) Pending(now time.Time) bool {
	return t.State == TransferPending && now.Before(t.Deadline)
}

// Expired reports whether a pending transfer ran past its deadline unresolved.
func (t *Transfer) Expired(now time.Time) bool {
	return t.State == TransferPending && !now.Before(t.Deadline)
}

// Settle returns a resolved transfer to NotTransferring.
func (t *Transfer) Settle() {
	if t.State == TransferResolved {
		*t = Transfer{}
	}
}

// LatestValidConn picks the most recently connected valid connection.
//
// Postcondition: returns nil when no connection is valid.
func LatestValidConn(conns []Conn) Conn {
	var best Conn
	for _, c := range conns {
		if c == nil || !c.Valid() {
			continue
		}
		if best == nil || c.ConnectedAt().After(best.ConnectedAt()) {
			best = c
		}
	}
	return best
}
