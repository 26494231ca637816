package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/restclient"
)

// TaskSource reads the tasks table.
type TaskSource struct {
	client *restclient.Client
	table  string
}

// NewTaskSource creates a TaskSource over table.
func NewTaskSource(client *restclient.Client, table string) *TaskSource {
	return &TaskSource{client: client, table: table}
}

// ActiveTasksOn returns every task due on date that is not complete,
// oldest first.
func (s *TaskSource) ActiveTasksOn(ctx context.Context, date model.Date) ([]model.Task, error) {
	query := url.Values{
		"select":      {"*"},
		"due_date":    {eq(date.String())},
		"is_complete": {eq("false")},
		"order":       {"created_at.asc,id.asc"},
	}

	var tasks []model.Task
	if err := s.client.Get(ctx, "/"+s.table, query, &tasks); err != nil {
		return nil, fmt.Errorf("querying tasks due %s: %w", date, err)
	}
	return tasks, nil
}
