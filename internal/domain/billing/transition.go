package billing

// DeviceAction is the device-side action required by a contract status change
type DeviceAction string

const (
	// DeviceActionNone means the change needs no device intervention
	DeviceActionNone DeviceAction = "none"
	// DeviceActionBlock reassigns the identity to the quarantine tier and
	// drops any live session
	DeviceActionBlock DeviceAction = "block"
	// DeviceActionUnblock restores the identity to its plan's tier
	DeviceActionUnblock DeviceAction = "unblock"
	// DeviceActionDelete drops the session, removes the device-side identity
	// and soft-deactivates the local mirror
	DeviceActionDelete DeviceAction = "delete"
)

// DecideDeviceAction maps a (previous, new) contract status pair to the
// device action it requires. Pure function, no side effects.
//
// Any transition into Canceled deletes; moving from a connectable status
// into suspension blocks; leaving suspension for Active unblocks. Every
// other pair is a no-op.
func DecideDeviceAction(previous, next ContractStatus) DeviceAction {
	if next == ContractStatusCanceled {
		return DeviceActionDelete
	}

	connectable := previous == ContractStatusActive || previous == ContractStatusPending
	if connectable && next.IsSuspended() {
		return DeviceActionBlock
	}

	if previous.IsSuspended() && next == ContractStatusActive {
		return DeviceActionUnblock
	}

	return DeviceActionNone
}
