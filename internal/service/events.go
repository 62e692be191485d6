package service

// Routing keys published on the tracker.events exchange.
const (
	EventTaskCreated          = "task.created"
	EventTaskUpdated          = "task.updated"
	EventTaskStatusChanged    = "task.status_changed"
	EventTaskCompleted        = "task.completed"
	EventTaskDeleted          = "task.deleted"
	EventTaskOverdue          = "task.overdue"
	EventProjectCreated       = "project.created"
	EventProjectDeleted       = "project.deleted"
	EventTimeLogCreated       = "timelog.created"
	EventDeliverableSubmitted = "deliverable.submitted"
	EventDeliverableReviewed  = "deliverable.reviewed"
)
