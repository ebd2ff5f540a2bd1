package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/store"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockStore implements store.Store for testing.
type mockStore struct {
	reviews []*models.Review
	listErr error
}

func (m *mockStore) GetIdentity(_ context.Context) (string, bool, error) { return "", false, nil }
func (m *mockStore) SetIdentity(_ context.Context, _ string) error       { return nil }
func (m *mockStore) ClearIdentity(_ context.Context) error               { return nil }
func (m *mockStore) ListReviews(_ context.Context) ([]*models.Review, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.reviews, nil
}
func (m *mockStore) AppendReview(_ context.Context, r *models.Review) ([]*models.Review, error) {
	m.reviews = append(m.reviews, r)
	return m.reviews, nil
}
func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

// mockChecker answers from a fixed set of "email|period" keys.
type mockChecker struct {
	period string
	done   map[string]bool
	err    error
	asked  []string
}

func (m *mockChecker) Completed(_ context.Context, identity, period string) (bool, error) {
	m.asked = append(m.asked, identity+"|"+period)
	if m.err != nil {
		return false, m.err
	}
	return m.done[identity+"|"+period], nil
}

func (m *mockChecker) CurrentPeriod() string { return m.period }

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) (*Server, *mockStore, *mockChecker) {
	t.Helper()
	ms := &mockStore{}
	mc := &mockChecker{period: "2026-10", done: map[string]bool{}}
	srv := NewServer(ms, mc)
	require.NotNil(t, srv)
	return srv, ms, mc
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

func seedReview(ms *mockStore, email, period, comments string) *models.Review {
	r := &models.Review{
		ID:                store.NewID(),
		Identity:          email,
		Period:            period,
		PeriodLabel:       models.PeriodLabel(period),
		CompletionPercent: 80,
		Satisfaction:      models.SatisfactionSatisfied,
		Comments:          comments,
		CreatedAt:         "19/10/2026, 10:00:00",
	}
	ms.reviews = append(ms.reviews, r)
	return r
}

// ---------------------------------------------------------------------------
// Tests: checkin_list_reviews
// ---------------------------------------------------------------------------

func TestHandleListReviews_Empty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	result, err := srv.handleListReviews(context.Background(), callToolReq("checkin_list_reviews", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestHandleListReviews_Filters(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedReview(ms, "a@example.com", "2026-09", "")
	seedReview(ms, "a@example.com", "2026-10", "hola")
	seedReview(ms, "b@example.com", "2026-10", "")

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"all", nil, []string{"a@example.com|2026-09", "a@example.com|2026-10", "b@example.com|2026-10"}},
		{"by email", map[string]any{"email": "A@Example.com"}, []string{"a@example.com|2026-09", "a@example.com|2026-10"}},
		{"by period", map[string]any{"period": "2026-10"}, []string{"a@example.com|2026-10", "b@example.com|2026-10"}},
		{"both", map[string]any{"email": "b@example.com", "period": "2026-09"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleListReviews(context.Background(), callToolReq("checkin_list_reviews", tt.args))
			require.NoError(t, err)
			require.False(t, result.IsError)

			var got []models.Review
			resultJSON(t, result, &got)
			keys := make([]string, 0, len(got))
			for _, r := range got {
				keys = append(keys, r.Identity+"|"+r.Period)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestHandleListReviews_WireNames(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedReview(ms, "a@example.com", "2026-10", "")

	result, err := srv.handleListReviews(context.Background(), callToolReq("checkin_list_reviews", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, `"developerEmail":"a@example.com"`)
	assert.Contains(t, text, `"monthId":"2026-10"`)
	assert.NotContains(t, text, `"comments"`, "empty comments are omitted")
}

func TestHandleListReviews_StoreError(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	ms.listErr = store.ErrCorrupt

	result, err := srv.handleListReviews(context.Background(), callToolReq("checkin_list_reviews", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "failed to list reviews")
}

// ---------------------------------------------------------------------------
// Tests: checkin_period_status
// ---------------------------------------------------------------------------

func TestHandlePeriodStatus_DefaultsToCurrentPeriod(t *testing.T) {
	srv, _, mc := newTestServer(t)
	mc.done["dev@example.com|2026-10"] = true

	result, err := srv.handlePeriodStatus(context.Background(), callToolReq("checkin_period_status", map[string]any{
		"email": " dev@example.com ",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var got struct {
		Email       string `json:"email"`
		Period      string `json:"period"`
		PeriodLabel string `json:"periodLabel"`
		Completed   bool   `json:"completed"`
	}
	resultJSON(t, result, &got)
	assert.Equal(t, "dev@example.com", got.Email)
	assert.Equal(t, "2026-10", got.Period)
	assert.Equal(t, "octubre de 2026", got.PeriodLabel)
	assert.True(t, got.Completed)
}

func TestHandlePeriodStatus_ExplicitPeriod(t *testing.T) {
	srv, _, mc := newTestServer(t)
	result, err := srv.handlePeriodStatus(context.Background(), callToolReq("checkin_period_status", map[string]any{
		"email":  "dev@example.com",
		"period": "2026-09",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), `"completed":false`)
	assert.Equal(t, []string{"dev@example.com|2026-09"}, mc.asked)
}

func TestHandlePeriodStatus_MissingEmail(t *testing.T) {
	srv, _, _ := newTestServer(t)
	result, err := srv.handlePeriodStatus(context.Background(), callToolReq("checkin_period_status", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "email")
}

func TestHandlePeriodStatus_CheckerError(t *testing.T) {
	srv, _, mc := newTestServer(t)
	mc.err = errors.New("boom")
	result, err := srv.handlePeriodStatus(context.Background(), callToolReq("checkin_period_status", map[string]any{
		"email": "dev@example.com",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// Tests: checkin_export_csv
// ---------------------------------------------------------------------------

func TestHandleExportCSV(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedReview(ms, "a@example.com", "2026-10", `dijo "ok"`)

	result, err := srv.handleExportCSV(context.Background(), callToolReq("checkin_export_csv", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.True(t, strings.HasPrefix(text, "\uFEFFFecha;Email;Mes;"))
	assert.Contains(t, text, `"dijo ""ok"""`)
}

func TestHandleExportCSV_StoreError(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	ms.listErr = errors.New("locked")
	result, err := srv.handleExportCSV(context.Background(), callToolReq("checkin_export_csv", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// Tests: Integration -- verify all tools are registered via HandleMessage
// ---------------------------------------------------------------------------

func TestMCPIntegration_ListTools(t *testing.T) {
	srv, _, _ := newTestServer(t)

	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv)

	ctx := context.Background()
	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := mcpSrv.HandleMessage(ctx, reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))

	toolNames := make(map[string]bool)
	for _, tool := range rpcResp.Result.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range []string{"checkin_list_reviews", "checkin_period_status", "checkin_export_csv"} {
		assert.True(t, toolNames[name], "expected tool %q to be registered", name)
	}
}

// Compile-time interface checks for mocks.
var (
	_ store.Store   = (*mockStore)(nil)
	_ PeriodChecker = (*mockChecker)(nil)
)
