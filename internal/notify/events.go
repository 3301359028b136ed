package notify

// RoleAssignedEvent is sent to each member added to a new project.
type RoleAssignedEvent struct {
	ProjectID   uint
	ProjectName string
	OwnerEmail  string
	MemberEmail string
	Role        string
}

// TaskAssignedEvent is sent when a task is created for a user.
type TaskAssignedEvent struct {
	TaskID        uint
	Title         string
	ProjectName   string
	AssigneeEmail string
	DueDate       string
}

// FeedbackStatusEvent is sent to the feedback author when its status moves.
type FeedbackStatusEvent struct {
	FeedbackID  uint
	AuthorEmail string
	Status      string
}
