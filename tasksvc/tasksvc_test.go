package tasksvc_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ichigozero/tasktracker/tasksvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskJSON(t *testing.T) {
	desc := "D"
	due := tasksvc.NewDate(2025, time.January, 1)
	task := tasksvc.Task{
		ID:          "t-1",
		OwnerID:     "u-1",
		Title:       "T",
		Description: &desc,
		Priority:    tasksvc.PriorityHigh,
		DueDate:     &due,
	}

	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "t-1",
		"title": "T",
		"description": "D",
		"priority": 2,
		"dueDate": "2025-01-01",
		"isCompleted": false
	}`, string(b))

	b, err = json.Marshal(tasksvc.Task{ID: "t-2", OwnerID: "u-1", Title: "T"})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "t-2",
		"title": "T",
		"description": null,
		"priority": 0,
		"dueDate": null,
		"isCompleted": false
	}`, string(b))
}

func TestTaskJSONIgnoresOwner(t *testing.T) {
	var task tasksvc.Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t-1","ownerId":"mallory","title":"T"}`), &task))
	assert.Empty(t, task.OwnerID)
}

func TestFieldsDecode(t *testing.T) {
	var f tasksvc.Fields
	err := json.Unmarshal([]byte(`{"title":"T","priority":1,"dueDate":"2025-03-04","ownerId":"someone"}`), &f)
	require.NoError(t, err)

	assert.Equal(t, "T", f.Title)
	assert.Equal(t, tasksvc.PriorityMedium, f.Priority)
	require.NotNil(t, f.DueDate)
	assert.Equal(t, "2025-03-04", f.DueDate.String())
	assert.Nil(t, f.Description)

	err = json.Unmarshal([]byte(`{"title":"T","dueDate":"04/03/2025"}`), &f)
	assert.True(t, errors.Is(err, tasksvc.ErrInvalidArgument))
}

func TestFieldsValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields tasksvc.Fields
		ok     bool
	}{
		{"title", tasksvc.Fields{Title: "T"}, true},
		{"empty title", tasksvc.Fields{Title: ""}, false},
		{"whitespace title", tasksvc.Fields{Title: " \t\n"}, false},
		{"high priority", tasksvc.Fields{Title: "T", Priority: tasksvc.PriorityHigh}, true},
		{"unknown priority", tasksvc.Fields{Title: "T", Priority: 3}, false},
		{"negative priority", tasksvc.Fields{Title: "T", Priority: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tasksvc.ErrInvalidArgument))
			}
		})
	}
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"time", time.Date(2025, 1, 2, 13, 4, 5, 0, time.UTC), "2025-01-02"},
		{"string", "2025-01-02", "2025-01-02"},
		{"timestamp string", "2025-01-02 00:00:00+00:00", "2025-01-02"},
		{"bytes", []byte("2025-01-02"), "2025-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d tasksvc.Date
			require.NoError(t, d.Scan(tt.value))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d tasksvc.Date
	assert.Error(t, d.Scan(42))
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "Low", tasksvc.PriorityLow.String())
	assert.Equal(t, "High", tasksvc.PriorityHigh.String())
	assert.Equal(t, "Priority(7)", tasksvc.Priority(7).String())
}
