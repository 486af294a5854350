package domain

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if id1 == "" {
		t.Error("expected non-empty ID")
	}
	if id2 == "" {
		t.Error("expected non-empty ID")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
	// Base64 URL encoding of 16 bytes = 22 chars
	if len(id1) != 22 {
		t.Errorf("expected ID length 22, got %d", len(id1))
	}
}

func TestNewTask(t *testing.T) {
	tenantID := "tenant-123"
	payload := map[string]string{"key": "value"}

	task := NewTask(TaskTypeEmbedRepo, tenantID, payload)

	if task.ID == "" {
		t.Error("expected non-empty ID")
	}
	if task.Type != TaskTypeEmbedRepo {
		t.Errorf("expected type %s, got %s", TaskTypeEmbedRepo, task.Type)
	}
	if task.TenantID != tenantID {
		t.Errorf("expected tenant ID %s, got %s", tenantID, task.TenantID)
	}
	if task.Payload["key"] != "value" {
		t.Error("expected payload to be set")
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected status %s, got %s", TaskStatusPending, task.Status)
	}
	if task.Priority != 0 {
		t.Errorf("expected priority 0, got %d", task.Priority)
	}
	if task.Attempts != 0 {
		t.Errorf("expected attempts 0, got %d", task.Attempts)
	}
	if task.MaxAttempts != 1 {
		t.Errorf("expected max attempts 1, got %d", task.MaxAttempts)
	}
	if task.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if task.ScheduledFor.IsZero() {
		t.Error("expected ScheduledFor to be set")
	}
}

func TestNewEmbedRepoTask(t *testing.T) {
	tenantID := "tenant-123"
	jobID := "job-456"

	task := NewEmbedRepoTask(tenantID, jobID)

	if task.Type != TaskTypeEmbedRepo {
		t.Errorf("expected type %s, got %s", TaskTypeEmbedRepo, task.Type)
	}
	if task.TenantID != tenantID {
		t.Errorf("expected tenant ID %s, got %s", tenantID, task.TenantID)
	}
	if task.JobID() != jobID {
		t.Errorf("expected job ID %s, got %s", jobID, task.JobID())
	}
}

func TestTask_JobID(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]string
		expected string
	}{
		{
			name:     "with job_id",
			payload:  map[string]string{"job_id": "job-123"},
			expected: "job-123",
		},
		{
			name:     "without job_id",
			payload:  map[string]string{"other": "value"},
			expected: "",
		},
		{
			name:     "nil payload",
			payload:  nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Payload: tt.payload}
			if got := task.JobID(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestTask_CanRetry(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		maxAttempts int
		expected    bool
	}{
		{"not yet delivered", 0, 1, true},
		{"budget exhausted", 1, 1, false},
		{"over budget", 2, 1, false},
		{"larger budget remaining", 1, 3, true},
		{"larger budget exhausted", 3, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Attempts: tt.attempts, MaxAttempts: tt.maxAttempts}
			if got := task.CanRetry(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTask_IsReady(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name         string
		status       TaskStatus
		scheduledFor time.Time
		expected     bool
	}{
		{"pending and past scheduled", TaskStatusPending, past, true},
		{"pending and future scheduled", TaskStatusPending, future, false},
		{"processing", TaskStatusProcessing, past, false},
		{"completed", TaskStatusCompleted, past, false},
		{"failed", TaskStatusFailed, past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Status: tt.status, ScheduledFor: tt.scheduledFor}
			if got := task.IsReady(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTask_MarkProcessing(t *testing.T) {
	task := NewTask(TaskTypeEmbedRepo, "tenant-123", nil)

	task.MarkProcessing()

	if task.Status != TaskStatusProcessing {
		t.Errorf("expected status %s, got %s", TaskStatusProcessing, task.Status)
	}
	if task.StartedAt == nil {
		t.Error("expected StartedAt to be set")
	}
	if task.Attempts != 1 {
		t.Errorf("expected attempts 1, got %d", task.Attempts)
	}
}

func TestTask_MarkCompleted(t *testing.T) {
	task := NewTask(TaskTypeEmbedRepo, "tenant-123", nil)
	task.Error = "some error"

	task.MarkCompleted()

	if task.Status != TaskStatusCompleted {
		t.Errorf("expected status %s, got %s", TaskStatusCompleted, task.Status)
	}
	if task.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
	if task.Error != "" {
		t.Error("expected Error to be cleared")
	}
}

func TestTask_MarkFailed(t *testing.T) {
	task := NewTask(TaskTypeEmbedRepo, "tenant-123", nil)
	errorMsg := "something went wrong"

	task.MarkFailed(errorMsg)

	if task.Status != TaskStatusFailed {
		t.Errorf("expected status %s, got %s", TaskStatusFailed, task.Status)
	}
	if task.Error != errorMsg {
		t.Errorf("expected error %s, got %s", errorMsg, task.Error)
	}
}

func TestTask_Requeue(t *testing.T) {
	task := NewTask(TaskTypeEmbedRepo, "tenant-123", nil)
	task.Status = TaskStatusProcessing
	task.Attempts = 1
	errorMsg := "worker shutting down"
	before := time.Now()

	task.Requeue(errorMsg)

	if task.Status != TaskStatusPending {
		t.Errorf("expected status %s, got %s", TaskStatusPending, task.Status)
	}
	if task.Error != errorMsg {
		t.Errorf("expected error %s, got %s", errorMsg, task.Error)
	}
	if task.ScheduledFor.Before(before) {
		t.Errorf("expected ScheduledFor at or after requeue time, got %v", task.ScheduledFor)
	}
	if !task.IsReady() {
		// ScheduledFor is set to the requeue time, so give the clock a beat
		time.Sleep(10 * time.Millisecond)
		if !task.IsReady() {
			t.Error("expected requeued task to be ready for delivery")
		}
	}
}

func TestTaskResult(t *testing.T) {
	result := TaskResult{
		TaskID:      "task-123",
		Success:     true,
		Duration:    5 * time.Second,
		ChunksCount: 100,
	}

	if result.TaskID != "task-123" {
		t.Errorf("expected TaskID task-123, got %s", result.TaskID)
	}
	if !result.Success {
		t.Error("expected Success to be true")
	}
	if result.Duration != 5*time.Second {
		t.Errorf("expected Duration 5s, got %v", result.Duration)
	}
	if result.ChunksCount != 100 {
		t.Errorf("expected ChunksCount 100, got %d", result.ChunksCount)
	}
}
