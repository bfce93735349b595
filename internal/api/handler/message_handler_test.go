package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/martijn/hookcmd/internal/core/domain"
)

func TestListMessages(t *testing.T) {
	tests := []struct {
		name           string
		queryString    string
		expectedStatus int
		expectedCount  int
		expectedTotal  int
	}{
		{
			name:           "basic listing returns all messages",
			queryString:    "",
			expectedStatus: http.StatusOK,
			expectedCount:  3,
			expectedTotal:  3,
		},
		{
			name:           "filter by status success",
			queryString:    "?query=status|SUCCESS",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			expectedTotal:  1,
		},
		{
			name:           "filter by missing execution",
			queryString:    "?query=status|isnull",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
			expectedTotal:  2,
		},
		{
			name:           "filter by sender",
			queryString:    "?query=sender|alice",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			expectedTotal:  1,
		},
		{
			name:           "pagination window",
			queryString:    "?page=2&per_page=2",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			expectedTotal:  3,
		},
		{
			name:           "order by created_at ascending",
			queryString:    "?order=created_at|asc",
			expectedStatus: http.StatusOK,
			expectedCount:  3,
			expectedTotal:  3,
		},
		{
			name:           "invalid query field returns 400",
			queryString:    "?query=content|secret",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid operator returns 400",
			queryString:    "?query=status|like|SUCCESS",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid order field returns 400",
			queryString:    "?order=content|desc",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, "echo ok")
			seedMessagesWithOneExecution(t, env)

			w := env.makeRequest(t, "/messages"+tt.queryString)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d\nBody: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus != http.StatusOK {
				errResp := parseErrorResponse(t, w)
				if errResp.Code != tt.expectedStatus {
					t.Errorf("expected error code %d, got %d", tt.expectedStatus, errResp.Code)
				}
				return
			}

			resp := parseMessageListResponse(t, w)
			if len(resp.Items) != tt.expectedCount {
				t.Errorf("expected %d items, got %d", tt.expectedCount, len(resp.Items))
			}
			if resp.Pagination.Total != tt.expectedTotal {
				t.Errorf("expected total %d, got %d", tt.expectedTotal, resp.Pagination.Total)
			}
		})
	}
}

// seedMessagesWithOneExecution inserts 3 messages; only the first triggered a
// command.
func seedMessagesWithOneExecution(t *testing.T, env *testEnv) (*domain.Message, *domain.CommandExecution) {
	t.Helper()

	first := env.seedMessage(t, "alice", "2026-08-01T09:00:00Z", "build now")
	env.seedMessage(t, "bob", "2026-08-02T09:00:00Z", "just chatting")
	env.seedMessage(t, "carol", "2026-08-03T09:00:00Z", "hello")

	execution := env.seedExecution(t, first.ID, domain.ExecutionStatusSuccess, "ok\n", "")
	return first, execution
}

func TestListMessagesExecutionShape(t *testing.T) {
	env := setupTestEnv(t, "echo ok")
	first, _ := seedMessagesWithOneExecution(t, env)

	w := env.makeRequest(t, "/messages")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d\nBody: %s", w.Code, w.Body.String())
	}

	resp := parseMessageListResponse(t, w)
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(resp.Items))
	}

	// Newest first: the executed message was created first, so it is last
	withExecution := 0
	for _, item := range resp.Items {
		if item.Execution != nil {
			withExecution++
			if item.ID != first.ID {
				t.Errorf("execution attached to message %d, want %d", item.ID, first.ID)
			}
			if item.Execution.Status != string(domain.ExecutionStatusSuccess) {
				t.Errorf("execution status = %s, want SUCCESS", item.Execution.Status)
			}
		}
	}
	if withExecution != 1 {
		t.Errorf("expected exactly 1 message with an execution, got %d", withExecution)
	}

	if resp.Items[0].ID <= resp.Items[2].ID {
		t.Errorf("expected newest first ordering, got ids %d..%d", resp.Items[0].ID, resp.Items[2].ID)
	}
}

func TestGetMessage(t *testing.T) {
	env := setupTestEnv(t, "echo ok")
	first, execution := seedMessagesWithOneExecution(t, env)

	w := env.makeRequest(t, fmt.Sprintf("/messages/%d", first.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d\nBody: %s", w.Code, w.Body.String())
	}

	resp := parseMessageResponse(t, w)
	if resp.ID != first.ID || resp.Sender != "alice" {
		t.Errorf("unexpected message: %+v", resp)
	}
	if resp.Execution == nil {
		t.Fatal("expected execution in detail view")
	}
	if resp.Execution.ExecutionID != execution.ExecutionID {
		t.Errorf("execution id = %s, want %s", resp.Execution.ExecutionID, execution.ExecutionID)
	}
	if resp.Execution.Link == nil || *resp.Execution.Link != "/executions/"+execution.ExecutionID {
		t.Errorf("unexpected execution link: %v", resp.Execution.Link)
	}
}

func TestGetMessageWithoutExecution(t *testing.T) {
	env := setupTestEnv(t, "echo ok")
	message := env.seedMessage(t, "dave", "2026-08-04T09:00:00Z", "no command here")

	w := env.makeRequest(t, fmt.Sprintf("/messages/%d", message.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d\nBody: %s", w.Code, w.Body.String())
	}

	resp := parseMessageResponse(t, w)
	if resp.Execution != nil {
		t.Errorf("expected no execution, got %+v", resp.Execution)
	}
}

func TestGetMessageNotFound(t *testing.T) {
	env := setupTestEnv(t, "echo ok")

	w := env.makeRequest(t, "/messages/4242")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d\nBody: %s", w.Code, w.Body.String())
	}

	errResp := parseErrorResponse(t, w)
	if errResp.Error != "Not Found" {
		t.Errorf("expected Not Found error, got %q", errResp.Error)
	}
}

func TestGetMessageInvalidID(t *testing.T) {
	env := setupTestEnv(t, "echo ok")

	w := env.makeRequest(t, "/messages/not-a-number")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d\nBody: %s", w.Code, w.Body.String())
	}
}

func TestGetExecutionByExecutionID(t *testing.T) {
	env := setupTestEnv(t, "echo ok")
	_, execution := seedMessagesWithOneExecution(t, env)

	w := env.makeRequest(t, "/executions/"+execution.ExecutionID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d\nBody: %s", w.Code, w.Body.String())
	}
}

func TestGetExecutionNotFound(t *testing.T) {
	env := setupTestEnv(t, "echo ok")

	w := env.makeRequest(t, "/executions/00000000-0000-0000-0000-000000000000")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d\nBody: %s", w.Code, w.Body.String())
	}
}
