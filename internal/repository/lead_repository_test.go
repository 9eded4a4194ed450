package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

func newTestLeadRepo(t *testing.T) (*LeadRepository, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	seq := 0
	repo := NewLeadRepository(LeadRepositoryOptions{
		DefaultOwnerID: "USR-001",
		Clock:          func() time.Time { return now },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
	return repo, &now
}

func createTestLead(repo *LeadRepository, name string) models.Lead {
	return repo.CreateLead(context.Background(), models.Lead{
		Name:         name,
		Email:        name + "@example.com",
		PhoneNumbers: []models.PhoneNumber{{Title: "Mobile", Number: "+919876543210"}},
		Source:       "Website",
	})
}

func TestLeadRepositoryCreateLead(t *testing.T) {
	repo, now := newTestLeadRepo(t)

	lead := repo.CreateLead(context.Background(), models.Lead{
		Name:           "Asha",
		Email:          "asha@example.com",
		Source:         "Walk-in Fair",
		Stage:          models.StageEnrolled,
		AssignedUserID: "someone-else",
		Tasks:          []models.Task{{ID: "t"}},
	})

	assert.Equal(t, "LEAD-00001", lead.ID)
	assert.Equal(t, models.StageNew, lead.Stage)
	assert.Equal(t, "USR-001", lead.AssignedUserID)
	assert.Equal(t, *now, lead.CreatedAt)
	require.Len(t, lead.Activities, 1)
	assert.Equal(t, models.ActivitySystem, lead.Activities[0].Type)
	assert.Equal(t, models.ActivityOutcomeLeadCreated, lead.Activities[0].Outcome)
	assert.Contains(t, lead.Activities[0].Notes, "Walk-in Fair")
	assert.Empty(t, lead.Tasks)
	assert.Empty(t, lead.Documents)
	assert.Empty(t, lead.Contacts)
}

func TestLeadRepositoryIDsAreNeverReused(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	ctx := context.Background()

	first := createTestLead(repo, "a")
	second := createTestLead(repo, "b")
	_, err := repo.BulkDelete(ctx, []string{second.ID})
	require.NoError(t, err)
	third := createTestLead(repo, "c")

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, second.ID, third.ID)
	assert.Equal(t, "LEAD-00003", third.ID)
}

func TestLeadRepositorySeedAdvancesSequence(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	ctx := context.Background()

	repo.Seed(ctx, models.Lead{ID: "LEAD-00042", Name: "seeded", Stage: models.StageQualified, Tasks: []models.Task{{ID: "t1", LeadID: "LEAD-00042", Type: models.TaskFollowUp, Status: models.TaskPending}}})
	created := createTestLead(repo, "fresh")

	assert.Equal(t, "LEAD-00043", created.ID)
	assert.Len(t, repo.ListTasks(ctx, models.TaskFilter{}), 1)
}

func TestLeadRepositoryFindLeadReturnsCopy(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	lead := createTestLead(repo, "copy")

	found, err := repo.FindLead(context.Background(), lead.ID)
	require.NoError(t, err)
	found.PhoneNumbers[0].Number = "changed"
	found.Name = "changed"

	again, err := repo.FindLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "copy", again.Name)
	assert.Equal(t, "+919876543210", again.PhoneNumbers[0].Number)
}

func TestLeadRepositoryUpdateLeadMergesOnlyProvidedFields(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	lead := createTestLead(repo, "merge")
	assignee := "USR-007"

	updated, err := repo.UpdateLead(context.Background(), lead.ID, models.LeadPatch{AssignedUserID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, "USR-007", updated.AssignedUserID)

	reread, err := repo.FindLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "USR-007", reread.AssignedUserID)
	assert.Equal(t, lead.Email, reread.Email)
	assert.Equal(t, lead.Name, reread.Name)
	assert.Equal(t, lead.PhoneNumbers, reread.PhoneNumbers)
	assert.Equal(t, lead.Stage, reread.Stage)
}

func TestLeadRepositoryUpdateLeadNotFound(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	name := "x"
	_, err := repo.UpdateLead(context.Background(), "LEAD-99999", models.LeadPatch{Name: &name})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadRepositoryAddActivityInsertsAtHead(t *testing.T) {
	repo, now := newTestLeadRepo(t)
	lead := createTestLead(repo, "log")
	ctx := context.Background()

	*now = now.Add(time.Hour)
	first, err := repo.AddActivity(ctx, lead.ID, models.Activity{Type: models.ActivityCall, Outcome: "Busy", Notes: "call later", UserID: "USR-002"})
	require.NoError(t, err)
	*now = now.Add(time.Hour)
	second, err := repo.AddActivity(ctx, lead.ID, models.Activity{Type: models.ActivityEmail, Outcome: "Sent", Notes: "brochure", UserID: "USR-002"})
	require.NoError(t, err)

	reread, err := repo.FindLead(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, reread.Activities, 3)
	assert.Equal(t, second.ID, reread.Activities[0].ID)
	assert.Equal(t, first.ID, reread.Activities[1].ID)
	assert.Equal(t, models.ActivitySystem, reread.Activities[2].Type)
	assert.True(t, reread.Activities[0].Timestamp.After(reread.Activities[1].Timestamp))
}

func TestLeadRepositoryAddActivityUnknownLead(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	_, err := repo.AddActivity(context.Background(), "nope", models.Activity{Type: models.ActivityCall})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadRepositoryAddActivityAndUpdateAppliesBoth(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	lead := createTestLead(repo, "composite")
	stage := models.StageContacted
	course := "MBA"

	activity, updated, err := repo.AddActivityAndUpdate(context.Background(), lead.ID, models.Activity{Type: models.ActivityCall, Outcome: "Interested"}, models.LeadPatch{Stage: &stage, CourseInterest: &course})
	require.NoError(t, err)
	assert.NotEmpty(t, activity.ID)
	assert.Equal(t, models.StageContacted, updated.Stage)
	assert.Equal(t, "MBA", updated.CourseInterest)
	assert.Equal(t, activity.ID, updated.Activities[0].ID)
}

func TestLeadRepositoryAddTask(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	lead := createTestLead(repo, "tasks")
	ctx := context.Background()

	task, err := repo.AddTask(ctx, lead.ID, models.Task{Type: models.TaskFollowUp, Status: models.TaskCompleted, Priority: models.PriorityHigh, Notes: "call back"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, lead.ID, task.LeadID)

	reread, err := repo.FindLead(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, reread.Tasks, 1)
	assert.Equal(t, task.ID, reread.Tasks[0].ID)
	assert.Len(t, repo.ListTasks(ctx, models.TaskFilter{LeadID: lead.ID}), 1)

	_, err = repo.AddTask(ctx, "missing", models.Task{Type: models.TaskMeeting})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadRepositoryUpdateTaskStatus(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	lead := createTestLead(repo, "status")
	ctx := context.Background()
	task, err := repo.AddTask(ctx, lead.ID, models.Task{Type: models.TaskFollowUp})
	require.NoError(t, err)

	updated, err := repo.UpdateTaskStatus(ctx, task.ID, models.TaskOverdue)
	require.NoError(t, err)
	assert.Equal(t, models.TaskOverdue, updated.Status)

	reread, err := repo.FindLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskOverdue, reread.Tasks[0].Status)
	assert.Len(t, repo.ListTasks(ctx, models.TaskFilter{Status: models.TaskOverdue}), 1)

	_, err = repo.UpdateTaskStatus(ctx, "missing", models.TaskCompleted)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestLeadRepositoryBulkAssign(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	ctx := context.Background()
	a := createTestLead(repo, "a")
	b := createTestLead(repo, "b")
	c := createTestLead(repo, "c")

	count, err := repo.BulkAssign(ctx, []models.LeadAssignment{{LeadID: a.ID, AssignedUserID: "USR-002"}, {LeadID: b.ID, AssignedUserID: "USR-003"}})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ra, _ := repo.FindLead(ctx, a.ID)
	rb, _ := repo.FindLead(ctx, b.ID)
	rc, _ := repo.FindLead(ctx, c.ID)
	assert.Equal(t, "USR-002", ra.AssignedUserID)
	assert.Equal(t, "USR-003", rb.AssignedUserID)
	assert.Equal(t, "USR-001", rc.AssignedUserID)
}

func TestLeadRepositoryBulkUpdateIsAllOrNothing(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	ctx := context.Background()
	a := createTestLead(repo, "a")
	stage := models.StageQualified

	_, err := repo.BulkUpdate(ctx, []string{a.ID, "LEAD-00404"}, models.LeadPatch{Stage: &stage})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLeadNotFound)
	var missing *MissingLeadsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"LEAD-00404"}, missing.IDs)

	reread, _ := repo.FindLead(ctx, a.ID)
	assert.Equal(t, models.StageNew, reread.Stage)

	count, err := repo.BulkUpdate(ctx, []string{a.ID, a.ID}, models.LeadPatch{Stage: &stage})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	reread, _ = repo.FindLead(ctx, a.ID)
	assert.Equal(t, models.StageQualified, reread.Stage)
}

func TestLeadRepositoryBulkDeleteRemovesOnlyTargets(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	ctx := context.Background()
	a := createTestLead(repo, "a")
	b := createTestLead(repo, "b")
	c := createTestLead(repo, "c")
	d := createTestLead(repo, "d")
	_, err := repo.AddTask(ctx, a.ID, models.Task{Type: models.TaskFollowUp})
	require.NoError(t, err)
	_, err = repo.AddTask(ctx, c.ID, models.Task{Type: models.TaskMeeting})
	require.NoError(t, err)
	beforeC, _ := repo.FindLead(ctx, c.ID)

	count, err := repo.BulkDelete(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repo.FindLead(ctx, a.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)
	_, err = repo.FindLead(ctx, b.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	afterC, err := repo.FindLead(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, beforeC, afterC)
	_, err = repo.FindLead(ctx, d.ID)
	require.NoError(t, err)

	tasks := repo.ListTasks(ctx, models.TaskFilter{})
	require.Len(t, tasks, 1)
	assert.Equal(t, c.ID, tasks[0].LeadID)
	assert.Equal(t, 2, repo.Count(ctx))
}

func TestLeadRepositoryBulkDeleteUnknownIDWritesNothing(t *testing.T) {
	repo, _ := newTestLeadRepo(t)
	ctx := context.Background()
	a := createTestLead(repo, "a")

	_, err := repo.BulkDelete(ctx, []string{a.ID, "ghost"})
	require.ErrorIs(t, err, ErrLeadNotFound)
	_, err = repo.FindLead(ctx, a.ID)
	assert.NoError(t, err)
}

func TestLeadRepositoryConcurrentWritesResolveToASerialOutcome(t *testing.T) {
	repo := NewLeadRepository(LeadRepositoryOptions{DefaultOwnerID: "USR-001"})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 50; i++ {
		ids = append(ids, createTestLead(repo, fmt.Sprintf("lead%02d", i)).ID)
	}
	kept, doomed := ids[:40], ids[40:]

	qualified, contacted := models.StageQualified, models.StageContacted
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []string
	)
	fail := func(format string, args ...interface{}) {
		mu.Lock()
		failures = append(failures, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	for i := 0; i < 8; i++ {
		stage := &qualified
		if i%2 == 1 {
			stage = &contacted
		}
		wg.Add(1)
		go func(stage *models.LeadStage) {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				if _, err := repo.BulkUpdate(ctx, ids, models.LeadPatch{Stage: stage}); err != nil {
					fail("bulk update: %v", err)
				}
			}
		}(stage)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				seen := map[models.LeadStage]struct{}{}
				for _, lead := range repo.List(ctx) {
					seen[lead.Stage] = struct{}{}
				}
				if len(seen) > 1 {
					fail("list observed a partial bulk update: %v", seen)
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for n := 0; n < 10; n++ {
				id := ids[(offset*10+n)%len(ids)]
				if _, err := repo.AddTask(ctx, id, models.Task{Type: models.TaskFollowUp, Notes: "call back"}); err != nil {
					fail("add task: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	require.Empty(t, failures)

	final := repo.List(ctx)
	require.Len(t, final, 50)
	stage := final[0].Stage
	assert.Contains(t, []models.LeadStage{qualified, contacted}, stage)
	for _, lead := range final {
		assert.Equal(t, stage, lead.Stage)
	}
	assert.Len(t, repo.ListTasks(ctx, models.TaskFilter{}), 80)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 0 {
				if _, err := repo.BulkDelete(ctx, doomed); err != nil {
					fail("bulk delete: %v", err)
				}
				return
			}
			for _, id := range doomed {
				if _, err := repo.AddTask(ctx, id, models.Task{Type: models.TaskMeeting, Notes: "campus visit"}); err != nil && !errors.Is(err, ErrLeadNotFound) {
					fail("add task during delete: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	require.Empty(t, failures)

	assert.Len(t, repo.List(ctx), 40)
	removed := make(map[string]struct{}, len(doomed))
	for _, id := range doomed {
		removed[id] = struct{}{}
		_, err := repo.FindLead(ctx, id)
		assert.ErrorIs(t, err, ErrLeadNotFound)
	}
	perLead := 0
	for _, id := range kept {
		lead, err := repo.FindLead(ctx, id)
		require.NoError(t, err)
		perLead += len(lead.Tasks)
	}
	tasks := repo.ListTasks(ctx, models.TaskFilter{})
	for _, task := range tasks {
		_, gone := removed[task.LeadID]
		assert.False(t, gone, "task %s survived the delete of lead %s", task.ID, task.LeadID)
	}
	assert.Equal(t, perLead, len(tasks))
}
