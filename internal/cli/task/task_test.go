package task

import (
	"errors"
	"strings"
	"testing"

	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/testutil"
	cliutil "github.com/thenoetrevino/taskroll/internal/testutil/cli"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return cli.ExitCodeFor(err)
}

// data runs a --json command and returns the "data" object
func data(t *testing.T, output string) map[string]any {
	t.Helper()
	result := testutil.ParseJSON(t, output)
	if result["success"] != true {
		t.Fatalf("Expected success, got %v", result)
	}
	d, ok := result["data"].(map[string]any)
	if !ok {
		t.Fatalf("Expected data object, got %v", result["data"])
	}
	return d
}

// ============================================================================
// create
// ============================================================================

func TestCreate_RootTaskQuiet(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, CreateCmd(), []string{"-p", "P", "--title", "  Publish notice  ", "--quiet"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := strings.TrimSpace(output)
	if len(id) != 36 {
		t.Fatalf("Expected a UUID, got %q", output)
	}

	shown, err := cliutil.ExecuteCLICommand(t, testApp, ShowCmd(), []string{id, "-p", "P", "--json"})
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	d := data(t, shown)
	if d["title"] != "Publish notice" {
		t.Errorf("Expected trimmed title, got %v", d["title"])
	}
	if d["status"] != "todo" {
		t.Errorf("Expected default status todo, got %v", d["status"])
	}
}

func TestCreate_SubtaskJSON(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, CreateCmd(), []string{
		"-p", "P", "--parent", "A", "--title", "Response to comments",
		"--assignee", "u1,u2", "--assignee", "u1",
		"--start", "2024-06-01", "--due", "2024-07-01",
		"--critical", "Awaiting counsel",
		"--attachment", "Draft=https://example.com/draft",
		"--json",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	d := data(t, output)
	if got := d["assignee_ids"].([]any); len(got) != 2 || got[0] != "u1" || got[1] != "u2" {
		t.Errorf("Expected deduplicated assignees [u1 u2], got %v", got)
	}
	if d["due_date"] != "2024-07-01T00:00:00Z" {
		t.Errorf("Expected UTC due date, got %v", d["due_date"])
	}
	if d["critical_issue"] != "Awaiting counsel" {
		t.Errorf("Unexpected critical issue %v", d["critical_issue"])
	}
	att := d["attachments"].([]any)
	if len(att) != 1 || att[0].(map[string]any)["URL"] != "https://example.com/draft" {
		t.Errorf("Unexpected attachments %v", att)
	}

	tree, err := cliutil.ExecuteCLICommand(t, testApp, ShowCmd(), []string{"A", "-p", "P", "--json"})
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if got := data(t, tree)["subtasks"]; got != float64(3) {
		t.Errorf("Expected A to have 3 subtasks, got %v", got)
	}
}

func TestCreate_DoneStampsDoneDate(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, CreateCmd(), []string{"-p", "P", "--title", "Already shipped", "--status", "completed", "--json"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	d := data(t, output)
	if d["status"] != "done" {
		t.Errorf("Expected status alias to resolve to done, got %v", d["status"])
	}
	if d["done_date"] != "2024-06-15T12:00:00Z" {
		t.Errorf("Expected done date from the app clock, got %v", d["done_date"])
	}
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"blank title", []string{"--title", "   "}, cli.ExitValidation},
		{"title too long", []string{"--title", strings.Repeat("x", 256)}, cli.ExitValidation},
		{"invalid status", []string{"--title", "x", "--status", "someday"}, cli.ExitValidation},
		{"bad due date", []string{"--title", "x", "--due", "next week"}, cli.ExitUsage},
		{"due before start", []string{"--title", "x", "--start", "2024-07-01", "--due", "2024-06-01"}, cli.ExitValidation},
		{"unknown parent", []string{"--title", "x", "--parent", "Z"}, cli.ExitNotFound},
		{"attachment without url", []string{"--title", "x", "--attachment", "broken="}, cli.ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testApp := cliutil.SetupCLITest(t)
			args := append([]string{"-p", "P", "--json"}, tt.args...)

			output, err := cliutil.ExecuteCLICommand(t, testApp, CreateCmd(), args)
			if err == nil {
				t.Fatalf("Expected an error, got output %q", output)
			}
			if got := exitCode(err); got != tt.code {
				t.Errorf("Expected exit code %d, got %d (%v)", tt.code, got, err)
			}
		})
	}
}

func TestCreate_UnknownProject(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	_, err := cliutil.ExecuteCLICommand(t, testApp, CreateCmd(), []string{"-p", "nope", "--title", "x", "--json"})
	if exitCode(err) != cli.ExitNotFound {
		t.Errorf("Expected not found, got %v", err)
	}
}

// ============================================================================
// update
// ============================================================================

func TestUpdate_ChangesOnlyGivenFields(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, UpdateCmd(), []string{"B", "-p", "P", "--title", "Publish final rule", "--due", "none", "--json"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	d := data(t, output)
	if d["title"] != "Publish final rule" {
		t.Errorf("Expected new title, got %v", d["title"])
	}
	if _, ok := d["due_date"]; ok {
		t.Errorf("Expected due date to be cleared, got %v", d["due_date"])
	}
	if d["status"] != "blocked" {
		t.Errorf("Expected status to be untouched, got %v", d["status"])
	}
	if got := d["assignee_ids"].([]any); len(got) != 1 || got[0] != "u1" {
		t.Errorf("Expected assignees to be untouched, got %v", got)
	}
}

func TestUpdate_ClearsLists(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, UpdateCmd(), []string{"A", "-p", "P", "--assignee", "", "--critical", "", "--json"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	d := data(t, output)
	if got := d["assignee_ids"].([]any); len(got) != 0 {
		t.Errorf("Expected no assignees, got %v", got)
	}
	if _, ok := d["critical_issue"]; ok {
		t.Errorf("Expected critical issue to be cleared")
	}
	if d["subtasks"] != float64(2) {
		t.Errorf("Expected the subtree to survive an update, got %v", d["subtasks"])
	}
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no fields", []string{"A", "-p", "P"}, cli.ExitUsage},
		{"unknown task", []string{"Z", "-p", "P", "--title", "x"}, cli.ExitNotFound},
		{"empty title", []string{"A", "-p", "P", "--title", ""}, cli.ExitValidation},
		{"blocked to done", []string{"B", "-p", "P", "--status", "done"}, cli.ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testApp := cliutil.SetupCLITest(t)

			_, err := cliutil.ExecuteCLICommand(t, testApp, UpdateCmd(), append(tt.args, "--json"))
			if got := exitCode(err); got != tt.code {
				t.Errorf("Expected exit code %d, got %d (%v)", tt.code, got, err)
			}
		})
	}
}

// ============================================================================
// status
// ============================================================================

func TestStatus_DoneDateLifecycle(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, StatusCmd(), []string{"A2", "done", "-p", "P", "--json"})
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if d := data(t, output); d["done_date"] != "2024-06-15T12:00:00Z" {
		t.Errorf("Expected done date to be stamped, got %v", d["done_date"])
	}

	output, err = cliutil.ExecuteCLICommand(t, testApp, StatusCmd(), []string{"A2", "in progress", "-p", "P", "--json"})
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	d := data(t, output)
	if d["status"] != "in_progress" {
		t.Errorf("Expected in_progress, got %v", d["status"])
	}
	if _, ok := d["done_date"]; ok {
		t.Errorf("Expected done date to be cleared on reopen")
	}
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		task   string
		status string
		ok     bool
	}{
		{"B", "done", false},
		{"B", "todo", true},
		{"B", "blocked", true},
		{"A1", "blocked", false},
		{"A1", "todo", true},
		{"A2", "blocked", true},
	}

	for _, tt := range tests {
		t.Run(tt.task+"->"+tt.status, func(t *testing.T) {
			testApp := cliutil.SetupCLITest(t)

			output, err := cliutil.ExecuteCLICommand(t, testApp, StatusCmd(), []string{tt.task, tt.status, "-p", "P", "--quiet"})
			if tt.ok {
				if err != nil {
					t.Fatalf("Expected transition to succeed: %v", err)
				}
				if strings.TrimSpace(output) != tt.task {
					t.Errorf("Expected quiet output %q, got %q", tt.task, output)
				}
				return
			}
			if got := exitCode(err); got != cli.ExitValidation {
				t.Errorf("Expected validation error, got %d (%v)", got, err)
			}
		})
	}
}

// ============================================================================
// show / delete
// ============================================================================

func TestShow_Human(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, ShowCmd(), []string{"A2", "-p", "P"})
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Comments", "projects/P", "u2", "2024-06-10", "5 days ago"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestDelete_RemovesSubtree(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	output, err := cliutil.ExecuteCLICommand(t, testApp, DeleteCmd(), []string{"A", "-p", "P", "--json"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	result := testutil.ParseJSON(t, output)
	if result["removed"] != float64(3) {
		t.Errorf("Expected 3 tasks removed, got %v", result["removed"])
	}

	for _, id := range []string{"A", "A1"} {
		_, err := cliutil.ExecuteCLICommand(t, testApp, ShowCmd(), []string{id, "-p", "P", "--json"})
		if exitCode(err) != cli.ExitNotFound {
			t.Errorf("Expected %s to be gone, got %v", id, err)
		}
	}
}

func TestDelete_Confirmation(t *testing.T) {
	testApp := cliutil.SetupCLITest(t)

	cmd := DeleteCmd()
	cmd.SetIn(strings.NewReader("n\n"))
	output, err := cliutil.ExecuteCLICommand(t, testApp, cmd, []string{"A", "-p", "P"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(output, "Delete task A: 'Draft rule' and 2 subtask(s)?") {
		t.Errorf("Expected a confirmation prompt, got %q", output)
	}
	if !strings.Contains(output, "Cancelled") {
		t.Errorf("Expected cancellation, got %q", output)
	}

	if _, err := cliutil.ExecuteCLICommand(t, testApp, ShowCmd(), []string{"A", "-p", "P", "--quiet"}); err != nil {
		t.Errorf("Expected A to survive a declined delete: %v", err)
	}
}

func TestParseAttachments(t *testing.T) {
	got := parseAttachments([]string{"Memo = https://a.example", "https://b.example"})
	if len(got) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(got))
	}
	if got[0].Name != "Memo" || got[0].URL != "https://a.example" {
		t.Errorf("Unexpected first attachment %+v", got[0])
	}
	if got[1].Name != "https://b.example" || got[1].URL != "https://b.example" {
		t.Errorf("Expected bare URL to name itself, got %+v", got[1])
	}
}
