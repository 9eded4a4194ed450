package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/repository"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
)

type mockUserFinder struct {
	users map[string]models.User
	err   error
}

func (m *mockUserFinder) FindUser(ctx context.Context, id string) (models.User, error) {
	if m.err != nil {
		return models.User{}, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

type mockLeadMetrics struct {
	calls map[string]int
}

func (m *mockLeadMetrics) RecordLeadMutation(operation string, count int) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[operation] += count
}

var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

func newTestLeadService(t *testing.T) (*LeadService, *repository.LeadRepository, *mockLeadMetrics) {
	t.Helper()
	seq := 0
	store := repository.NewLeadRepository(repository.LeadRepositoryOptions{
		DefaultOwnerID: "USR-001",
		Clock:          func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("ID-%d", seq)
		},
	})
	users := &mockUserFinder{users: map[string]models.User{
		"USR-001": {ID: "USR-001", Name: "Asha Rao", Role: models.UserRole{ID: models.RoleCounselor}},
		"USR-002": {ID: "USR-002", Name: "Vikram Shah", Role: models.UserRole{ID: models.RoleCounselor}},
		"USR-003": {ID: "USR-003", Name: "Meera Iyer", Role: models.UserRole{ID: models.RoleCounselor}},
	}}
	metrics := &mockLeadMetrics{}
	svc := NewLeadService(store, users, nil, metrics, nil, LeadServiceConfig{})
	return svc, store, metrics
}

func validCreateRequest(name string) dto.CreateLeadRequest {
	return dto.CreateLeadRequest{
		Name:         name,
		Email:        "lead@example.com",
		PhoneNumbers: []dto.PhoneNumberInput{{Title: "Mobile", Number: "+919876543210"}},
		Source:       "Website",
	}
}

func mustCreate(t *testing.T, svc *LeadService, name string) models.Lead {
	t.Helper()
	res, err := svc.CreateLead(context.Background(), validCreateRequest(name))
	require.NoError(t, err)
	return *res.Lead
}

func requireValidationFields(t *testing.T, err error, fields ...string) {
	t.Helper()
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	for _, field := range fields {
		assert.Contains(t, appErr.Fields, field)
	}
}

func requireNotFound(t *testing.T, err error) *appErrors.Error {
	t.Helper()
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Empty(t, appErr.Fields)
	return appErr
}

func TestLeadServiceCreateLead(t *testing.T) {
	svc, store, metrics := newTestLeadService(t)

	res, err := svc.CreateLead(context.Background(), validCreateRequest("Priya Nair"))
	require.NoError(t, err)
	assert.Equal(t, `Lead "Priya Nair" created successfully.`, res.Message)
	require.NotNil(t, res.Lead)
	assert.Equal(t, "LEAD-00001", res.Lead.ID)
	assert.Equal(t, models.StageNew, res.Lead.Stage)
	assert.Equal(t, "USR-001", res.Lead.AssignedUserID)
	require.Len(t, res.Lead.Activities, 1)
	assert.Equal(t, models.ActivitySystem, res.Lead.Activities[0].Type)
	assert.Equal(t, 1, store.Count(context.Background()))
	assert.Equal(t, 1, metrics.calls["create"])
}

func TestLeadServiceCreateLeadComposesSource(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*dto.CreateLeadRequest)
		expected string
	}{
		{"other uses qualifier", func(r *dto.CreateLeadRequest) { r.Source = "Other"; r.OtherSource = "Newspaper" }, "Newspaper"},
		{"social media", func(r *dto.CreateLeadRequest) { r.Source = "Social Media"; r.SocialMediaChannel = "Instagram" }, "Social Media - Instagram"},
		{"referral", func(r *dto.CreateLeadRequest) { r.Source = "Referral"; r.ReferrerName = "John" }, "Referral - John"},
		{"plain", func(r *dto.CreateLeadRequest) { r.Source = "Walk-in" }, "Walk-in"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestLeadService(t)
			req := validCreateRequest("Rahul Das")
			tc.mutate(&req)
			res, err := svc.CreateLead(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Lead.Source)
		})
	}
}

func TestLeadServiceCreateLeadValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.CreateLeadRequest)
		field  string
	}{
		{"short name", func(r *dto.CreateLeadRequest) { r.Name = "A" }, "name"},
		{"bad email", func(r *dto.CreateLeadRequest) { r.Email = "not-an-email" }, "email"},
		{"bad phone", func(r *dto.CreateLeadRequest) { r.PhoneNumbers[0].Number = "12345" }, "phoneNumbers[0].number"},
		{"missing source", func(r *dto.CreateLeadRequest) { r.Source = " " }, "source"},
		{"other without qualifier", func(r *dto.CreateLeadRequest) { r.Source = "Other" }, "otherSource"},
		{"social without channel", func(r *dto.CreateLeadRequest) { r.Source = "Social Media" }, "socialMediaChannel"},
		{"referral without name", func(r *dto.CreateLeadRequest) { r.Source = "Referral" }, "referrerName"},
		{"bad gender", func(r *dto.CreateLeadRequest) { g := "Unknown"; r.Gender = &g }, "gender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _ := newTestLeadService(t)
			req := validCreateRequest("Rahul Das")
			tc.mutate(&req)
			res, err := svc.CreateLead(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res)
			requireValidationFields(t, err, tc.field)
			assert.Zero(t, store.Count(context.Background()))
		})
	}
}

func TestLeadServiceCreateLeadDropsEmptyPhoneEntries(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	req := validCreateRequest("Sana Khan")
	req.PhoneNumbers = append(req.PhoneNumbers, dto.PhoneNumberInput{Title: "Home", Number: "  "})

	res, err := svc.CreateLead(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Lead.PhoneNumbers, 1)

	req.PhoneNumbers = []dto.PhoneNumberInput{{Title: "Home", Number: ""}}
	_, err = svc.CreateLead(context.Background(), req)
	requireValidationFields(t, err, "phoneNumbers")
}

func TestLeadServiceUpdateLead(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Kiran Patel")
	city := "Pune"

	res, err := svc.UpdateLead(context.Background(), dto.UpdateLeadRequest{
		ID:                 lead.ID,
		Name:               "Kiran Patil",
		Email:              "kiran@example.com",
		PhoneNumbers:       []dto.PhoneNumberInput{{Title: "Mobile", Number: "9876543210"}},
		Source:             "Social Media",
		SocialMediaChannel: "Facebook",
		AssignedUserID:     "USR-002",
		Stage:              string(models.StageQualified),
		LeadProfileInput:   dto.LeadProfileInput{City: &city},
	})
	require.NoError(t, err)
	assert.Equal(t, `Lead "Kiran Patil" updated successfully.`, res.Message)
	assert.Equal(t, "Social Media - Facebook", res.Lead.Source)
	assert.Equal(t, "USR-002", res.Lead.AssignedUserID)
	assert.Equal(t, models.StageQualified, res.Lead.Stage)
	assert.Equal(t, "Pune", res.Lead.City)
	assert.Len(t, res.Lead.Activities, 1)
}

func TestLeadServiceUpdateLeadRequiresAssignee(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Kiran Patel")

	_, err := svc.UpdateLead(context.Background(), dto.UpdateLeadRequest{
		ID:           lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		PhoneNumbers: []dto.PhoneNumberInput{{Number: "+919876543210"}},
		Source:       "Website",
	})
	requireValidationFields(t, err, "assignedUserId")
}

func TestLeadServiceUpdateLeadNotFound(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	_, err := svc.UpdateLead(context.Background(), dto.UpdateLeadRequest{
		ID:             "LEAD-99999",
		Name:           "Ghost Lead",
		Email:          "ghost@example.com",
		PhoneNumbers:   []dto.PhoneNumberInput{{Number: "+919876543210"}},
		Source:         "Website",
		AssignedUserID: "USR-001",
	})
	appErr := requireNotFound(t, err)
	assert.Equal(t, "lead not found", appErr.Message)
}

func TestLeadServiceAddTask(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Neha Gupta")

	res, err := svc.AddTask(context.Background(), dto.AddTaskRequest{
		LeadID:         lead.ID,
		Type:           string(models.TaskFollowUp),
		DueDate:        "2026-04-16",
		Priority:       string(models.PriorityHigh),
		Notes:          "Call back about fees",
		AssignedUserID: "USR-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "Task added successfully.", res.Message)
	assert.Equal(t, models.TaskPending, res.Task.Status)
	assert.Equal(t, time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC), res.Task.DueDate)

	tasks := store.ListTasks(context.Background(), models.TaskFilter{LeadID: lead.ID})
	assert.Len(t, tasks, 1)
}

func TestLeadServiceAddTaskValidation(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Neha Gupta")

	_, err := svc.AddTask(context.Background(), dto.AddTaskRequest{
		LeadID:   lead.ID,
		Type:     "Lunch",
		DueDate:  "tomorrow",
		Priority: "Urgent",
		Notes:    "x",
	})
	requireValidationFields(t, err, "type", "dueDate", "priority", "notes", "assignedUserId")
	assert.Empty(t, store.ListTasks(context.Background(), models.TaskFilter{}))
}

func TestLeadServiceAddActivityWithStageAndCourse(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Arjun Mehta")

	res, err := svc.AddActivity(context.Background(), dto.AddActivityRequest{
		LeadID:         lead.ID,
		Type:           string(models.ActivityCall),
		Outcome:        "Interested",
		Notes:          "Wants the MBA brochure",
		UserID:         "USR-001",
		CourseInterest: "MBA",
		Stage:          string(models.StageContacted),
	})
	require.NoError(t, err)
	assert.Equal(t, "Activity logged successfully.", res.Message)
	require.Len(t, res.Lead.Activities, 2)
	assert.Equal(t, models.ActivityCall, res.Lead.Activities[0].Type)
	assert.Equal(t, "MBA", res.Lead.CourseInterest)
	assert.Equal(t, models.StageContacted, res.Lead.Stage)
}

func TestLeadServiceAddActivityRejectsBadStage(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Arjun Mehta")

	_, err := svc.AddActivity(context.Background(), dto.AddActivityRequest{
		LeadID:  lead.ID,
		Type:    string(models.ActivityEmail),
		Outcome: "Sent",
		Notes:   "Brochure",
		UserID:  "USR-001",
		Stage:   "Graduated",
	})
	requireValidationFields(t, err, "stage")

	stored, err := store.FindLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Activities, 1)
	assert.Equal(t, models.StageNew, stored.Stage)
}

func TestLeadServiceBulkUpdateStage(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	a := mustCreate(t, svc, "Lead One")
	b := mustCreate(t, svc, "Lead Two")
	c := mustCreate(t, svc, "Lead Three")

	res, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{
		LeadIDs: []string{a.ID, b.ID},
		Stage:   string(models.StageQualified),
	})
	require.NoError(t, err)
	assert.Equal(t, "2 lead(s) moved to Qualified.", res.Message)

	untouched, err := store.FindLead(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageNew, untouched.Stage)
}

func TestLeadServiceBulkUpdateAssignee(t *testing.T) {
	svc, store, metrics := newTestLeadService(t)
	a := mustCreate(t, svc, "Lead One")

	res, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{
		LeadIDs:        []string{a.ID},
		AssignedUserID: "USR-003",
	})
	require.NoError(t, err)
	assert.Equal(t, "1 lead(s) assigned to Meera Iyer.", res.Message)
	stored, _ := store.FindLead(context.Background(), a.ID)
	assert.Equal(t, "USR-003", stored.AssignedUserID)
	assert.Equal(t, 1, metrics.calls["bulk_assign"])

	_, err = svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{LeadIDs: []string{a.ID}, AssignedUserID: "USR-404"})
	appErr := requireNotFound(t, err)
	assert.Equal(t, "user not found", appErr.Message)
}

func TestLeadServiceBulkUpdateDistribution(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	a := mustCreate(t, svc, "Lead One")
	b := mustCreate(t, svc, "Lead Two")

	res, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{
		LeadIDs: []string{a.ID, b.ID},
		Distribution: []dto.DistributionEntry{
			{LeadID: a.ID, AssignedUserID: "USR-002"},
			{LeadID: b.ID, AssignedUserID: "USR-003"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2 lead(s) distributed successfully.", res.Message)
	first, _ := store.FindLead(context.Background(), a.ID)
	second, _ := store.FindLead(context.Background(), b.ID)
	assert.Equal(t, "USR-002", first.AssignedUserID)
	assert.Equal(t, "USR-003", second.AssignedUserID)
}

func TestLeadServiceBulkUpdateWithoutChange(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	a := mustCreate(t, svc, "Lead One")
	before, _ := store.FindLead(context.Background(), a.ID)

	res, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{LeadIDs: []string{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, "No updates performed.", res.Message)
	assert.Zero(t, res.Count)

	after, _ := store.FindLead(context.Background(), a.ID)
	assert.Equal(t, before, after)
}

func TestLeadServiceBulkUpdateUnknownLeadWritesNothing(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	a := mustCreate(t, svc, "Lead One")

	_, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{
		LeadIDs: []string{a.ID, "LEAD-00404"},
		Stage:   string(models.StageEnrolled),
	})
	appErr := requireNotFound(t, err)
	assert.Contains(t, appErr.Message, "LEAD-00404")
	assert.True(t, errors.Is(err, repository.ErrLeadNotFound))

	stored, _ := store.FindLead(context.Background(), a.ID)
	assert.Equal(t, models.StageNew, stored.Stage)
}

func TestLeadServiceBulkUpdateValidation(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	_, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{Stage: "Nowhere"})
	requireValidationFields(t, err, "leadIds", "stage")
}

func TestLeadServiceBulkDelete(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	a := mustCreate(t, svc, "Lead One")
	b := mustCreate(t, svc, "Lead Two")
	c := mustCreate(t, svc, "Lead Three")

	res, err := svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{LeadIDs: []string{a.ID, c.ID}})
	require.NoError(t, err)
	assert.Equal(t, "2 lead(s) deleted successfully.", res.Message)

	remaining := store.List(context.Background())
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)

	next := mustCreate(t, svc, "Lead Four")
	assert.Equal(t, "LEAD-00004", next.ID)
}

func TestLeadServiceDistributeLeadsRoundRobin(t *testing.T) {
	svc, store, _ := newTestLeadService(t)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreate(t, svc, fmt.Sprintf("Lead %d", i)).ID)
	}
	_, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateRequest{LeadIDs: []string{ids[4]}, Stage: string(models.StageContacted)})
	require.NoError(t, err)

	res, err := svc.DistributeLeads(context.Background(), dto.DistributeLeadsRequest{CounselorIDs: []string{"USR-002", "USR-003"}})
	require.NoError(t, err)
	assert.Equal(t, "4 lead(s) distributed successfully.", res.Message)

	expected := []string{"USR-002", "USR-003", "USR-002", "USR-003"}
	for i, want := range expected {
		lead, _ := store.FindLead(context.Background(), ids[i])
		assert.Equal(t, want, lead.AssignedUserID, ids[i])
	}
	contacted, _ := store.FindLead(context.Background(), ids[4])
	assert.Equal(t, "USR-001", contacted.AssignedUserID)
}

func TestLeadServiceDistributeLeadsUnknownCounselor(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	mustCreate(t, svc, "Lead One")

	_, err := svc.DistributeLeads(context.Background(), dto.DistributeLeadsRequest{CounselorIDs: []string{"USR-404"}})
	requireNotFound(t, err)

	_, err = svc.DistributeLeads(context.Background(), dto.DistributeLeadsRequest{})
	requireValidationFields(t, err, "counselorIds")
}

func TestLeadServiceListFiltersAndPaginates(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	for i := 0; i < 5; i++ {
		mustCreate(t, svc, fmt.Sprintf("Student %d", i))
	}
	req := validCreateRequest("Zoya Ali")
	req.Source = "Referral"
	req.ReferrerName = "Alumni"
	_, err := svc.CreateLead(context.Background(), req)
	require.NoError(t, err)

	leads, pagination, err := svc.List(context.Background(), models.LeadFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, leads, 2)
	assert.Equal(t, 6, pagination.TotalCount)
	assert.Equal(t, "LEAD-00003", leads[0].ID)

	leads, _, err = svc.List(context.Background(), models.LeadFilter{Source: "referral"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Zoya Ali", leads[0].Name)

	leads, _, err = svc.List(context.Background(), models.LeadFilter{Search: "zoya"})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	leads, _, err = svc.List(context.Background(), models.LeadFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadServiceUpdateTaskStatus(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	lead := mustCreate(t, svc, "Neha Gupta")
	added, err := svc.AddTask(context.Background(), dto.AddTaskRequest{
		LeadID:         lead.ID,
		Type:           string(models.TaskMeeting),
		DueDate:        "2026-04-10",
		Priority:       string(models.PriorityLow),
		Notes:          "Campus visit",
		AssignedUserID: "USR-001",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, added.Task.Status)

	res, err := svc.UpdateTaskStatus(context.Background(), dto.UpdateTaskStatusRequest{TaskID: added.Task.ID, Status: string(models.TaskOverdue)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskOverdue, res.Task.Status)

	_, err = svc.UpdateTaskStatus(context.Background(), dto.UpdateTaskStatusRequest{TaskID: "missing", Status: string(models.TaskCompleted)})
	appErr := requireNotFound(t, err)
	assert.Equal(t, "task not found", appErr.Message)
}

func TestLeadServiceGetNotFound(t *testing.T) {
	svc, _, _ := newTestLeadService(t)
	_, err := svc.Get(context.Background(), "LEAD-00001")
	requireNotFound(t, err)
}
