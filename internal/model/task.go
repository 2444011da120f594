package model

// Identity is an unpadded base64url ed25519 public key.
type Identity string

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
)

type Task struct {
	ID          uint32   `json:"id"`
	Description string   `json:"description"`
	Owner       Identity `json:"owner"`
	Status      Status   `json:"status"`
	Timestamp   uint64   `json:"timestamp"`
}

// Visible reports whether the task shows up in listings.
func (t Task) Visible() bool {
	return t.Status != StatusDeleted
}

type Stats struct {
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[Status]int `json:"by_status"`
}
