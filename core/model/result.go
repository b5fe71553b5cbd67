package model

import "errors"

var (
	// ErrStatusAlreadySet is returned when a run outcome is decided twice.
	ErrStatusAlreadySet = errors.New("result status already set")
	// ErrNonTerminalStatus is returned when Finish receives INIT.
	ErrNonTerminalStatus = errors.New("status is not terminal")
)

// Result accumulates the identity facts of one run. Empty strings stand for
// values that were not resolved.
type Result struct {
	DockMAC   string `json:"dock_mac"`
	VIN       string `json:"vin"`
	VehicleID string `json:"vehicle_id"`
	Status    Status `json:"status"`
	Error     string `json:"error"`
}

// NewResult returns a Result in the INIT state.
func NewResult() *Result {
	return &Result{Status: StatusInit}
}

// Finish records the terminal outcome. It can only be called once per run.
func (r *Result) Finish(status Status, errMsg string) error {
	if !status.Terminal() {
		return ErrNonTerminalStatus
	}
	if r.Status != StatusInit {
		return ErrStatusAlreadySet
	}
	r.Status = status
	r.Error = errMsg
	return nil
}

// Done reports whether the run outcome has been decided.
func (r *Result) Done() bool { return r.Status.Terminal() }

// Topics names the two broker topics carrying the vehicle identity.
type Topics struct {
	VIN       string
	VehicleID string
}
