package youtrack

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: server.URL, Token: "secret-token"})
	return client, server
}

func TestValidateToken_OK(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		require.Equal(t, "/admin/projects", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	})
	defer server.Close()

	valid, err := client.ValidateToken()
	require.NoError(t, err)
	require.True(t, valid)
}

func TestValidateToken_Rejected(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	// A rejected credential is a clean false, not an error.
	valid, err := client.ValidateToken()
	require.NoError(t, err)
	require.False(t, valid)
}

func TestValidateToken_UpstreamFailure(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.ValidateToken()
	require.Error(t, err)
}

func TestListProjects(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "id,name", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`[{"id":"0-1","name":"Demo"},{"id":"0-2","name":"Ops"}]`))
	})
	defer server.Close()

	projects, err := client.ListProjects()
	require.NoError(t, err)
	require.Equal(t, []Project{{ID: "0-1", Name: "Demo"}, {ID: "0-2", Name: "Ops"}}, projects)
}

func TestCreateIssue(t *testing.T) {
	var got IssueDraft
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/issues", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	})
	defer server.Close()

	err := client.CreateIssue(IssueDraft{
		Project: ProjectRef{ID: "0-1"},
		Summary: "Broken login",
	})
	require.NoError(t, err)
	require.Equal(t, "0-1", got.Project.ID)
	require.Equal(t, "Broken login", got.Summary)
	require.Empty(t, got.Description)
}

func TestCreateIssue_OmitsEmptyDescription(t *testing.T) {
	var raw map[string]json.RawMessage
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{}`))
	})
	defer server.Close()

	require.NoError(t, client.CreateIssue(IssueDraft{Project: ProjectRef{ID: "0-1"}, Summary: "s"}))
	_, present := raw["description"]
	require.False(t, present, "empty description must be omitted from the payload")
}

func TestFetchFeed(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/notifications", r.URL.Path)
		require.Equal(t, "id,content,metadata", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`[{"id":"n-1","metadata":"abc","content":"c"}]`))
	})
	defer server.Close()

	records, err := client.FetchFeed()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "n-1", records[0].ID)
	require.Equal(t, "abc", records[0].Metadata)
}
