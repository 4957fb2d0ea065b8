// Package domain holds the rows the admin dashboard reads. Field names follow
// the Postgres column names of the hosted backend.
package domain

import "time"

// Table names in the hosted backend.
const (
	TableProjects      = "projects"
	TableUsers         = "users"
	TableTickets       = "tickets"
	TablePayments      = "payments"
	TableNotifications = "notifications"
)

// Project is a managed project.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Version     string    `json:"version,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is a dashboard user profile.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket statuses, in workflow order.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// TicketStatuses lists every ticket status in workflow order.
var TicketStatuses = []string{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}

// Ticket is a support or work ticket attached to a project.
type Ticket struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority,omitempty"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Payment is a billing record.
type Payment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"` // minor units
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a per-user message.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ChartPoint is one labelled value of a chart.
type ChartPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ChartSeries is the data behind one dashboard chart.
type ChartSeries struct {
	Name        string       `json:"name"`
	Points      []ChartPoint `json:"points"`
	GeneratedAt time.Time    `json:"generated_at"`
}
