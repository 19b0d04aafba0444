package replay

import "errors"

// ErrLedgerUnderflow indicates a transfer moved more units out of a wallet
// than its replayed ledger holds. Scores must never be silently wrong, so
// this aborts the whole run.
var ErrLedgerUnderflow = errors.New("ownership ledger underflow")
