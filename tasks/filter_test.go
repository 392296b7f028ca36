package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTasks() []Task {
	return []Task{
		{ID: 42, Title: "Milestone 1", Description: "first delivery", Status: StatusPending},
		{ID: 7, Title: "Other", Description: "no match", Status: StatusCompleted},
		{ID: 9, Title: "cleanup", Description: "smile for the camera", Status: StatusPending},
	}
}

func TestFilterNumericQueryMatchesIDExactly(t *testing.T) {
	got := Filter(sampleTasks(), "42", StatusFilterAll)
	require.Len(t, got, 1)
	assert.Equal(t, 42, got[0].ID)

	// Exact id search wins even when the digits appear in no title or
	// description, and even when text elsewhere would match.
	got = Filter(sampleTasks(), "7", "all")
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
}

func TestFilterTextQueryIsCaseInsensitiveSubstring(t *testing.T) {
	got := Filter(sampleTasks(), "mile", StatusFilterAll)
	require.Len(t, got, 2)
	assert.Equal(t, "Milestone 1", got[0].Title)
	assert.Equal(t, "cleanup", got[1].Title, "description matches count too")

	got = Filter(sampleTasks(), "MILESTONE", "all")
	require.Len(t, got, 1)
}

func TestFilterEmptyQueryKeepsAll(t *testing.T) {
	got := Filter(sampleTasks(), "", StatusFilterAll)
	assert.Equal(t, sampleTasks(), got)

	got = Filter(sampleTasks(), "   ", "all")
	assert.Len(t, got, 3, "whitespace-only query is no query")
}

func TestFilterStatusComposition(t *testing.T) {
	got := Filter(sampleTasks(), "", "pending")
	require.Len(t, got, 2)
	for _, task := range got {
		assert.Equal(t, StatusPending, task.Status)
	}

	got = Filter(sampleTasks(), "mile", "completed")
	assert.Empty(t, got, "text filter then status filter compose")

	got = Filter(sampleTasks(), "other", "COMPLETED")
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
}

func TestFilterUnmatchedNumericQuery(t *testing.T) {
	got := Filter(sampleTasks(), "999", StatusFilterAll)
	assert.Empty(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	input := sampleTasks()
	Filter(input, "mile", "pending")
	assert.Equal(t, sampleTasks(), input)
}

func TestFilterPreservesOrder(t *testing.T) {
	input := []Task{
		{ID: 3, Title: "alpha x"},
		{ID: 1, Title: "x beta"},
		{ID: 2, Title: "gamma x"},
	}
	got := Filter(input, "x", "")
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{got[0].ID, got[1].ID, got[2].ID})
}
