package repository

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// DemoDataset returns the reference rows from the SQL seed plus n generated
// tickets spread over the last 120 days. Output is deterministic for a given
// now and n.
func DemoDataset(now time.Time, n int) Dataset {
	ds := Dataset{
		Categories: []domain.Category{
			{ID: "cat-booking", Name: "Booking & Technology", Code: "BKT", Icon: "calendar", Color: "#3b82f6", IsActive: true},
			{ID: "cat-service", Name: "Customer Service", Code: "CSV", Icon: "headphones", Color: "#a855f7", IsActive: true},
			{ID: "cat-sales", Name: "Sales & Marketing", Code: "SLM", Icon: "users", Color: "#f59e0b", IsActive: true},
			{ID: "cat-safety", Name: "Health & Safety", Code: "HSF", Icon: "alert-triangle", Color: "#ef4444", IsActive: true},
			{ID: "cat-retail", Name: "Retail Management", Code: "RTL", Icon: "package", Color: "#8b5cf6", IsActive: true},
		},
		Subcategories: []domain.Subcategory{
			{ID: "sub-class-booking", CategoryID: "cat-booking", Name: "Class Booking", Code: "BKT-CLS", IsActive: true},
			{ID: "sub-payment", CategoryID: "cat-booking", Name: "Payment Processing", Code: "BKT-PAY", IsActive: true},
			{ID: "sub-app", CategoryID: "cat-booking", Name: "App Issues", Code: "BKT-APP", IsActive: true},
			{ID: "sub-staff", CategoryID: "cat-service", Name: "Staff Professionalism", Code: "CSV-STF", IsActive: true},
			{ID: "sub-front-desk", CategoryID: "cat-service", Name: "Front Desk Service", Code: "CSV-FDK", IsActive: true},
			{ID: "sub-trial", CategoryID: "cat-sales", Name: "Trial Class Experience", Code: "SLM-TRL", IsActive: true},
			{ID: "sub-injury", CategoryID: "cat-safety", Name: "Injury During Class", Code: "HSF-INJ", IsActive: true},
			{ID: "sub-equipment", CategoryID: "cat-safety", Name: "Equipment Safety", Code: "HSF-EQP", IsActive: true},
			{ID: "sub-product", CategoryID: "cat-retail", Name: "Product Quality", Code: "RTL-PRD", IsActive: true},
		},
		Studios: []domain.Studio{
			{ID: "studio-kwality", Name: "Kwality House", Code: "KWH", IsActive: true},
			{ID: "studio-supreme", Name: "Supreme HQ", Code: "SHQ", IsActive: true},
			{ID: "studio-wework", Name: "WeWork Prestige", Code: "WWP", IsActive: true},
			{ID: "studio-kenkre", Name: "Kenkre House", Code: "KNK", IsActive: true},
			{ID: "studio-sufc", Name: "SUFC", Code: "SUFC", IsActive: true},
		},
		Users: []domain.User{
			{ID: "user-admin", Name: "Desk Admin", Code: "ADM", Email: "admin@studio-desk.local", Team: "Operations", Role: domain.UserRoleAdmin, IsActive: true, CreatedAt: now},
			{ID: "user-ops", Name: "Riya Mehta", Code: "RM", Email: "riya@studio-desk.local", Team: "Operations", Role: domain.UserRoleLead, IsActive: true, CreatedAt: now},
			{ID: "user-success", Name: "Arjun Rao", Code: "AR", Email: "arjun@studio-desk.local", Team: "Client Success", Role: domain.UserRoleAgent, IsActive: true, CreatedAt: now},
			{ID: "user-facilities", Name: "Neha Shah", Code: "NS", Email: "neha@studio-desk.local", Team: "Facilities", Role: domain.UserRoleAgent, IsActive: true, CreatedAt: now},
			{ID: "user-training", Name: "Kabir Iyer", Code: "KI", Email: "kabir@studio-desk.local", Team: "Training", Role: domain.UserRoleAgent, IsActive: true, CreatedAt: now},
			{ID: "user-it", Name: "Sara D'Souza", Code: "SD", Email: "sara@studio-desk.local", Team: "IT Support", Role: domain.UserRoleAgent, IsActive: true, CreatedAt: now},
		},
	}

	rng := rand.New(rand.NewPCG(uint64(n), 2026))
	titles := []string{
		"Unable to book evening class",
		"Charged twice for class pack",
		"Instructor started late",
		"Question about annual membership",
		"Slipped near the changing room",
		"App logs out on launch",
		"Class cancelled without notice",
		"Front desk queue too long",
		"Broken reformer strap",
		"Grip socks wrong size",
	}
	sources := []string{"email", "phone", "walk_in", "app", "whatsapp"}
	moods := []string{"calm", "frustrated", "angry", "happy"}
	names := []string{"Priya Nair", "Rahul Kapoor", "Ananya Singh", "Vikram Joshi", "Meera Pillai", "Dev Patel"}
	slaHours := map[domain.TicketPriority]int{
		domain.TicketPriorityCritical: 1,
		domain.TicketPriorityHigh:     4,
		domain.TicketPriorityMedium:   8,
		domain.TicketPriorityLow:      24,
	}

	for i := 0; i < n; i++ {
		sub := ds.Subcategories[rng.IntN(len(ds.Subcategories))]
		created := now.Add(-time.Duration(rng.IntN(120*24*60)) * time.Minute)
		priority := domain.TicketPriorities[rng.IntN(len(domain.TicketPriorities))]
		status := domain.TicketStatuses[rng.IntN(len(domain.TicketStatuses))]
		name := names[rng.IntN(len(names))]
		due := created.Add(time.Duration(slaHours[priority]) * time.Hour)

		t := domain.Ticket{
			ID:            fmt.Sprintf("tkt-%05d", i+1),
			TicketNumber:  fmt.Sprintf("TKT-%05d", i+1),
			Title:         titles[rng.IntN(len(titles))],
			Description:   "Generated demo ticket.",
			Status:        status,
			Priority:      priority,
			CategoryID:    sub.CategoryID,
			SubcategoryID: &sub.ID,
			StudioID:      ds.Studios[rng.IntN(len(ds.Studios))].ID,
			ReporterID:    ds.Users[rng.IntN(len(ds.Users))].ID,
			Source:        sources[rng.IntN(len(sources))],
			CreatedAt:     created,
			UpdatedAt:     created,
			SLADueAt:      &due,
			CustomerName:  name,
			CustomerEmail: fmt.Sprintf("member%03d@example.com", rng.IntN(500)),
			Mood:          moods[rng.IntN(len(moods))],
			Tags:          []string{sub.Code},
		}
		if status != domain.TicketStatusNew {
			assignee := ds.Users[1+rng.IntN(len(ds.Users)-1)].ID
			t.AssigneeID = &assignee
		}
		handled := time.Duration(rng.IntN(72*60)) * time.Minute
		if status.IsDone() {
			resolved := created.Add(handled)
			if resolved.After(now) {
				resolved = now
			}
			t.ResolvedAt = &resolved
			t.UpdatedAt = resolved
			t.SLABreached = resolved.After(due)
		} else {
			t.UpdatedAt = minTime(created.Add(handled), now)
			t.SLABreached = now.After(due) && rng.IntN(2) == 0
		}
		ds.Tickets = append(ds.Tickets, t)
	}
	return ds
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
