package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/taskboard/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// ErrorDetails carries per-field validation messages.
type ErrorDetails struct {
	Details []string `json:"details"`
}

type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserView(u *domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// AssigneeView is an entry of the assignee picker.
type AssigneeView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewAssigneeViews(users []domain.User) []AssigneeView {
	out := make([]AssigneeView, 0, len(users))
	for _, u := range users {
		out = append(out, AssigneeView{ID: u.ID, Name: u.Name})
	}
	return out
}

type SessionView struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}

type TaskView struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       string       `json:"status"`
	Priority     string       `json:"priority"`
	DueDate      *domain.Date `json:"due_date"`
	CreatedBy    string       `json:"created_by"`
	CreatorName  string       `json:"creator_name,omitempty"`
	AssignedTo   string       `json:"assigned_to"`
	AssigneeName string       `json:"assignee_name,omitempty"`
	IsOverdue    bool         `json:"is_overdue"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewTaskView renders t. names maps user IDs to display names and may be nil.
func NewTaskView(t *domain.Task, names map[string]string, today domain.Date) TaskView {
	return TaskView{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		DueDate:      t.DueDate,
		CreatedBy:    t.CreatedBy,
		CreatorName:  names[t.CreatedBy],
		AssignedTo:   t.AssignedTo,
		AssigneeName: names[t.AssignedTo],
		IsOverdue:    t.IsOverdue(today),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func NewTaskViews(tasks []domain.Task, names map[string]string, today domain.Date) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskView(&tasks[i], names, today))
	}
	return out
}

type StatsView struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

func NewStatsView(s domain.TaskStats) StatsView {
	return StatsView{
		Total:     s.Total,
		Pending:   s.Pending,
		Completed: s.Completed,
		Overdue:   s.Overdue,
	}
}
