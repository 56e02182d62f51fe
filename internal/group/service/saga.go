package service

// SagaState tracks group creation. Successful runs end in
// MembershipBound; failed runs that got past the first insert end in Failed
// after CompensatingDelete.
type SagaState int

const (
	SagaStart SagaState = iota
	SagaGroupCreated
	SagaMembershipBound
	SagaCompensatingDelete
	SagaFailed
)

func (s SagaState) String() string {
	switch s {
	case SagaStart:
		return "start"
	case SagaGroupCreated:
		return "group_created"
	case SagaMembershipBound:
		return "membership_bound"
	case SagaCompensatingDelete:
		return "compensating_delete"
	case SagaFailed:
		return "failed"
	default:
		return "unknown"
	}
}
