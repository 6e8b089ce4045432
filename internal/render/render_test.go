package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBytesEnv(t *testing.T) {
	t.Setenv("HTTP_EXECUTOR_TEST_HOST", "api.example.com")

	out, err := RenderBytes("cfg", []byte(`url: https://{{ env "HTTP_EXECUTOR_TEST_HOST" }}/users/[[ arg "id" ]]
mode: {{ envOr "HTTP_EXECUTOR_TEST_UNSET" "dev" | upper }}`))
	require.NoError(t, err)
	assert.Equal(t, `url: https://api.example.com/users/[[ arg "id" ]]
mode: DEV`, string(out))
}

func TestRenderBytesMissingEnv(t *testing.T) {
	_, err := RenderBytes("", []byte(`a: {{ env "HTTP_EXECUTOR_TEST_B" }}{{ env "HTTP_EXECUTOR_TEST_A" }}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEnv)
	assert.Contains(t, err.Error(), "HTTP_EXECUTOR_TEST_A, HTTP_EXECUTOR_TEST_B")
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: {{ default "svc" "" }}`), 0o600))

	out, err := RenderFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: svc", string(out))

	_, err = RenderFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRenderTemplate(t *testing.T) {
	data := TemplateData{
		Args:          map[string]any{"id": 42, "tags": []any{"a", "b"}, "filter": map[string]any{"x": 1}},
		ToolName:      "get_user",
		CorrelationID: "corr-1",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "https://example.com", want: "https://example.com"},
		{name: "arg", in: `https://example.com/users/[[ arg "id" ]]`, want: "https://example.com/users/42"},
		{name: "missing arg", in: `[[ arg "nope" ]]`, want: ""},
		{name: "arg or", in: `[[ argOr "page" 1 ]]`, want: "1"},
		{name: "fields", in: `[[ .ToolName ]]/[[ .CorrelationID ]]`, want: "get_user/corr-1"},
		{name: "json", in: `[[ json (arg "filter") ]]`, want: `{"x":1}`},
		{name: "join", in: `[[ join "," (arg "tags") ]]`, want: "a,b"},
		{name: "urlquery", in: `[[ urlquery "a b" ]]`, want: "a+b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.in, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplateErrors(t *testing.T) {
	_, err := RenderTemplate(`[[ required "id" ]]`, TemplateData{})
	assert.ErrorContains(t, err, `argument "id" is required`)

	_, err = RenderTemplate(`[[ arg "id" `, TemplateData{})
	assert.ErrorContains(t, err, "template parse")
}

func TestRenderMap(t *testing.T) {
	out, err := RenderMap(map[string]string{
		"Authorization": `Bearer [[ arg "token" ]]`,
		"X-Optional":    `[[ arg "missing" ]]`,
	}, TemplateData{Args: map[string]any{"token": "t"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer t"}, out)

	out, err = RenderMap(nil, TemplateData{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestConfigFuncs(t *testing.T) {
	t.Setenv("HTTP_EXECUTOR_TEST_HOSTS", "a, b,,c")

	out, err := RenderBytes("cfg", []byte(`hosts: {{ envList "HTTP_EXECUTOR_TEST_HOSTS" | join ";" }}
auth: {{ basicAuth "user" "pass" }}`))
	require.NoError(t, err)
	assert.Equal(t, "hosts: a;b;c\nauth: Basic dXNlcjpwYXNz", string(out))
}
