package constant

type CallStatus string

const (
	CallStatusNew        CallStatus = "new"
	CallStatusProcessing CallStatus = "processing"
	CallStatusProcessed  CallStatus = "processed"
	CallStatusError      CallStatus = "error"
)

func (s CallStatus) String() string {
	return string(s)
}

type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusRunning   AnalysisStatus = "running"
	AnalysisStatusCompleted AnalysisStatus = "completed"
)

func (s AnalysisStatus) String() string {
	return string(s)
}

// Closed role vocabulary for role resolution. Speakers past the second
// one get "Participant-N" labels from the fallback assigner.
const (
	RoleEmployee = "Employee"
	RoleCustomer = "Customer"
	RoleUnknown  = "Unknown"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
