package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pmadmin-backend/internal/domain"
)

// SeedSize controls how many rows Seed writes per table.
type SeedSize struct {
	Projects      int
	Users         int
	TicketsPer    int
	Payments      int
	Notifications int
}

// DefaultSeedSize is used by local development and the CLI demo mode.
var DefaultSeedSize = SeedSize{
	Projects:      23,
	Users:         12,
	TicketsPer:    8,
	Payments:      30,
	Notifications: 40,
}

var (
	projectStatuses = []string{"planning", "active", "on_hold", "released"}
	userRoles       = []string{"admin", "manager", "developer", "viewer"}
	priorities      = []string{"low", "medium", "high"}
	paymentStates   = []string{"pending", "paid", "refunded"}
)

// seedID derives a stable UUID so seeded data is identical across runs.
func seedID(kind string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s-%d", kind, n))).String()
}

// Seed fills the source with deterministic demo rows.
func (s *Source) Seed(size SeedSize) error {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	users := make([]any, 0, size.Users)
	for i := 0; i < size.Users; i++ {
		users = append(users, domain.User{
			ID:        seedID("user", i),
			Email:     fmt.Sprintf("user%02d@example.com", i),
			FullName:  fmt.Sprintf("User %02d", i),
			Role:      userRoles[i%len(userRoles)],
			Active:    i%5 != 4,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	projects := make([]any, 0, size.Projects)
	tickets := make([]any, 0, size.Projects*size.TicketsPer)
	for i := 0; i < size.Projects; i++ {
		projectID := seedID("project", i)
		owner := ""
		if size.Users > 0 {
			owner = seedID("user", i%size.Users)
		}
		projects = append(projects, domain.Project{
			ID:          projectID,
			Name:        fmt.Sprintf("Project %02d", i),
			Description: fmt.Sprintf("Demo project number %d", i),
			Status:      projectStatuses[i%len(projectStatuses)],
			OwnerID:     owner,
			Version:     fmt.Sprintf("1.%d.0", i%7),
			CreatedAt:   base.Add(time.Duration(i) * 24 * time.Hour),
			UpdatedAt:   base.Add(time.Duration(i)*24*time.Hour + time.Hour),
		})

		for j := 0; j < size.TicketsPer; j++ {
			n := i*size.TicketsPer + j
			tickets = append(tickets, domain.Ticket{
				ID:        seedID("ticket", n),
				ProjectID: projectID,
				Title:     fmt.Sprintf("Ticket %d of project %02d", j, i),
				Status:    domain.TicketStatuses[n%len(domain.TicketStatuses)],
				Priority:  priorities[n%len(priorities)],
				CreatedAt: base.Add(time.Duration(n) * 30 * time.Minute),
				UpdatedAt: base.Add(time.Duration(n)*30*time.Minute + 5*time.Minute),
			})
		}
	}

	payments := make([]any, 0, size.Payments)
	for i := 0; i < size.Payments; i++ {
		userID := ""
		if size.Users > 0 {
			userID = seedID("user", i%size.Users)
		}
		payments = append(payments, domain.Payment{
			ID:        seedID("payment", i),
			UserID:    userID,
			Amount:    int64(1000 + i*250),
			Currency:  "EUR",
			Status:    paymentStates[i%len(paymentStates)],
			CreatedAt: base.Add(time.Duration(i) * 6 * time.Hour),
		})
	}

	notifications := make([]any, 0, size.Notifications)
	for i := 0; i < size.Notifications; i++ {
		userID := ""
		if size.Users > 0 {
			userID = seedID("user", i%size.Users)
		}
		notifications = append(notifications, domain.Notification{
			ID:        seedID("notification", i),
			UserID:    userID,
			Title:     fmt.Sprintf("Notification %d", i),
			Read:      i%3 == 0,
			CreatedAt: base.Add(time.Duration(i) * 2 * time.Hour),
		})
	}

	for table, rows := range map[string][]any{
		domain.TableUsers:         users,
		domain.TableProjects:      projects,
		domain.TableTickets:       tickets,
		domain.TablePayments:      payments,
		domain.TableNotifications: notifications,
	} {
		if err := s.Insert(table, rows...); err != nil {
			return err
		}
	}
	return nil
}

// SeedUserID returns the ID Seed assigns to the n-th user.
func SeedUserID(n int) string {
	return seedID("user", n)
}

// SeedProjectID returns the ID Seed assigns to the n-th project.
func SeedProjectID(n int) string {
	return seedID("project", n)
}
