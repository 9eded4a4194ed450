// Package seed builds the synthetic directory and lead data loaded at startup.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

// Options tunes the generated data set.
type Options struct {
	Leads int
	Seed  int64
	Now   time.Time
}

// Dataset is the generated state.
type Dataset struct {
	Roles        []models.Role
	Users        []models.User
	Institutions []models.Institution
	Courses      []models.Course
	Leads        []models.Lead
}

type leadSeeder interface {
	Seed(ctx context.Context, leads ...models.Lead)
}

type directorySeeder interface {
	Seed(roles []models.Role, users []models.User, institutions []models.Institution, courses []models.Course)
}

var (
	firstNames = []string{"Aarav", "Diya", "Ishaan", "Ananya", "Kabir", "Meera", "Rohan", "Saanvi", "Vihaan", "Zara", "Arjun", "Kavya", "Nikhil", "Priya", "Reyansh", "Tara"}
	lastNames  = []string{"Sharma", "Iyer", "Khan", "Patel", "Reddy", "Nair", "Gupta", "Das", "Menon", "Singh", "Joshi", "Bose"}
	cities     = []string{"Mumbai", "Pune", "Bengaluru", "Chennai", "Hyderabad", "Delhi", "Kochi", "Jaipur"}
	sources    = []string{"Website", "Walk-in", "Education Fair", "Newspaper", models.SourceSocialMedia, models.SourceReferral, models.SourceOther}
	channels   = []string{"Instagram", "Facebook", "LinkedIn", "YouTube"}
	others     = []string{"Hoarding", "Radio", "Alumni Meet"}
	education  = []string{"12th Science", "12th Commerce", "B.Com", "B.Sc", "BBA", "B.Tech"}
	academic   = []string{"Studying", "Graduated", "Working"}
	outcomes   = []string{"Interested", "Call back later", "Not reachable", "Brochure shared", "Visited campus"}
	activities = []models.ActivityType{models.ActivityCall, models.ActivityEmail, models.ActivitySMS, models.ActivityWhatsApp, models.ActivityWalkIn}
	taskTypes  = []models.TaskType{models.TaskFollowUp, models.TaskMeeting, models.TaskDocumentation}
	priorities = []models.TaskPriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
)

// Generate builds a data set. The same options always produce the same data.
func Generate(opts Options) Dataset {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	ds := Dataset{
		Roles: []models.Role{
			{ID: models.RoleAdmin, Name: "Admin"},
			{ID: models.RoleCounselor, Name: "Counselor"},
			{ID: models.RoleManager, Name: "Manager"},
		},
		Institutions: []models.Institution{
			{ID: "INS-001", Name: "Northfield Institute of Management", City: "Mumbai"},
			{ID: "INS-002", Name: "Lakeside College of Engineering", City: "Pune"},
			{ID: "INS-003", Name: "Riverbank School of Design", City: "Bengaluru"},
		},
	}
	ds.Users = generateUsers(ds.Roles)
	ds.Courses = []models.Course{
		{ID: "CRS-001", Code: "MBA", Name: "Master of Business Administration", Department: "Management", DurationMonths: 24, Fee: 450000, InstitutionID: "INS-001"},
		{ID: "CRS-002", Code: "BBA", Name: "Bachelor of Business Administration", Department: "Management", DurationMonths: 36, Fee: 280000, InstitutionID: "INS-001"},
		{ID: "CRS-003", Code: "PGDM", Name: "Post Graduate Diploma in Management", Department: "Management", DurationMonths: 24, Fee: 390000, InstitutionID: "INS-001"},
		{ID: "CRS-004", Code: "BTECH-CS", Name: "B.Tech Computer Science", Department: "Engineering", DurationMonths: 48, Fee: 620000, InstitutionID: "INS-002"},
		{ID: "CRS-005", Code: "BTECH-ME", Name: "B.Tech Mechanical", Department: "Engineering", DurationMonths: 48, Fee: 540000, InstitutionID: "INS-002"},
		{ID: "CRS-006", Code: "MTECH-DS", Name: "M.Tech Data Science", Department: "Engineering", DurationMonths: 24, Fee: 360000, InstitutionID: "INS-002"},
		{ID: "CRS-007", Code: "BDES", Name: "Bachelor of Design", Department: "Design", DurationMonths: 48, Fee: 580000, InstitutionID: "INS-003"},
		{ID: "CRS-008", Code: "MDES-UX", Name: "Master of Design, Interaction", Department: "Design", DurationMonths: 24, Fee: 410000, InstitutionID: "INS-003"},
	}

	counselors := make([]models.User, 0, len(ds.Users))
	for _, u := range ds.Users {
		if u.IsCounselor() {
			counselors = append(counselors, u)
		}
	}

	ds.Leads = make([]models.Lead, 0, opts.Leads)
	for i := 0; i < opts.Leads; i++ {
		ds.Leads = append(ds.Leads, generateLead(rng, i+1, opts.Now, counselors, ds.Courses))
	}
	return ds
}

// Load stores the data set into the given repositories.
func Load(ctx context.Context, ds Dataset, leads leadSeeder, directory directorySeeder) {
	directory.Seed(ds.Roles, ds.Users, ds.Institutions, ds.Courses)
	leads.Seed(ctx, ds.Leads...)
}

func generateUsers(roles []models.Role) []models.User {
	role := func(id string) models.UserRole {
		for _, r := range roles {
			if r.ID == id {
				return models.UserRole{ID: r.ID, Name: r.Name}
			}
		}
		return models.UserRole{ID: id}
	}
	names := []string{"Neha Kapoor", "Rahul Verma", "Sneha Pillai", "Imran Sheikh", "Pooja Rao", "Vikram Malhotra"}
	users := make([]models.User, 0, len(names)+2)
	for i, name := range names {
		users = append(users, models.User{
			ID:    fmt.Sprintf("USR-%03d", i+1),
			Name:  name,
			Email: fmt.Sprintf("counselor%d@northfield.edu", i+1),
			Role:  role(models.RoleCounselor),
		})
	}
	users = append(users,
		models.User{ID: "USR-101", Name: "Anita Desai", Email: "admissions.head@northfield.edu", Role: role(models.RoleManager)},
		models.User{ID: "USR-900", Name: "System Administrator", Email: "admin@northfield.edu", Role: role(models.RoleAdmin)},
	)
	return users
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}

func generateLead(rng *rand.Rand, n int, now time.Time, counselors []models.User, courses []models.Course) models.Lead {
	id := fmt.Sprintf("LEAD-%05d", n)
	first, last := pick(rng, firstNames), pick(rng, lastNames)
	createdAt := now.Add(-time.Duration(rng.Intn(60*24)) * time.Hour).Truncate(time.Minute)
	owner := pick(rng, counselors).ID

	source := pick(rng, sources)
	switch source {
	case models.SourceSocialMedia:
		source = source + " - " + pick(rng, channels)
	case models.SourceReferral:
		source = source + " - " + pick(rng, firstNames) + " " + pick(rng, lastNames)
	case models.SourceOther:
		source = pick(rng, others)
	}

	stage := models.LeadStages[rng.Intn(len(models.LeadStages))]
	birth := time.Date(1998+rng.Intn(8), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)

	lead := models.Lead{
		ID:    id,
		Name:  first + " " + last,
		Email: fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), n),
		PhoneNumbers: []models.PhoneNumber{
			{Title: "Mobile", Number: fmt.Sprintf("+91%d%09d", 6+rng.Intn(4), rng.Intn(1_000_000_000))},
		},
		Stage:          stage,
		Source:         source,
		AssignedUserID: owner,
		CreatedAt:      createdAt,
		Education:      pick(rng, education),
		AcademicStatus: pick(rng, academic),
		CourseInterest: pick(rng, courses).Code,
		City:           pick(rng, cities),
		Gender:         pick(rng, []string{"Male", "Female"}),
		BirthDate:      &birth,
		Tasks:          []models.Task{},
		Documents:      []models.Document{},
		Contacts:       []models.Contact{},
	}
	if rng.Intn(3) == 0 {
		lead.Contacts = append(lead.Contacts, models.Contact{Name: pick(rng, firstNames) + " " + last, Relation: pick(rng, []string{"Father", "Mother", "Guardian"})})
	}

	activitiesLog := []models.Activity{{
		ID:        id + "-ACT-000",
		Type:      models.ActivitySystem,
		Timestamp: createdAt,
		Outcome:   models.ActivityOutcomeLeadCreated,
		Notes:     "Lead created from source: " + source,
		UserID:    models.SystemUserID,
	}}
	at := createdAt
	interactions := rng.Intn(4)
	for i := 1; i <= interactions; i++ {
		at = at.Add(time.Duration(1+rng.Intn(72)) * time.Hour)
		if at.After(now) {
			break
		}
		activitiesLog = append([]models.Activity{{
			ID:        fmt.Sprintf("%s-ACT-%03d", id, i),
			Type:      pick(rng, activities),
			Timestamp: at,
			Outcome:   pick(rng, outcomes),
			Notes:     "Discussed " + lead.CourseInterest + " admission",
			UserID:    owner,
		}}, activitiesLog...)
	}
	lead.Activities = activitiesLog

	taskCount := rng.Intn(3)
	for i := 1; i <= taskCount; i++ {
		due := now.AddDate(0, 0, rng.Intn(7)-2).Truncate(time.Hour)
		status := models.TaskPending
		if rng.Intn(4) == 0 {
			status = models.TaskCompleted
		}
		lead.Tasks = append(lead.Tasks, models.Task{
			ID:             fmt.Sprintf("%s-TSK-%03d", id, i),
			LeadID:         id,
			Type:           pick(rng, taskTypes),
			DueDate:        due,
			Status:         status,
			Priority:       pick(rng, priorities),
			Notes:          "Follow up on " + lead.CourseInterest + " application",
			AssignedUserID: owner,
		})
	}
	return lead
}
