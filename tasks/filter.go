package tasks

import (
	"strconv"
	"strings"
)

// StatusFilterAll disables status filtering.
const StatusFilterAll = "all"

// Filter derives the displayed subset of a task collection from a free-text
// query and a status filter. It is pure: the input is never mutated and the
// result preserves the input order.
//
// A query that parses fully as an integer selects by exact id and takes
// precedence over text search; otherwise a non-empty query matches tasks
// whose title or description contains it case-insensitively. The status
// filter is applied afterwards unless it is empty or "all"; its value is
// compared uppercased.
func Filter(collection []Task, query, statusFilter string) []Task {
	filtered := filterByQuery(collection, strings.TrimSpace(query))

	if statusFilter == "" || strings.EqualFold(statusFilter, StatusFilterAll) {
		return filtered
	}
	status := Status(strings.ToUpper(statusFilter))
	result := make([]Task, 0, len(filtered))
	for _, task := range filtered {
		if task.Status == status {
			result = append(result, task)
		}
	}
	return result
}

func filterByQuery(collection []Task, query string) []Task {
	if query == "" {
		result := make([]Task, len(collection))
		copy(result, collection)
		return result
	}

	if id, err := strconv.Atoi(query); err == nil {
		result := make([]Task, 0, 1)
		for _, task := range collection {
			if task.ID == id {
				result = append(result, task)
			}
		}
		return result
	}

	needle := strings.ToLower(query)
	result := make([]Task, 0, len(collection))
	for _, task := range collection {
		if strings.Contains(strings.ToLower(task.Title), needle) ||
			strings.Contains(strings.ToLower(task.Description), needle) {
			result = append(result, task)
		}
	}
	return result
}
