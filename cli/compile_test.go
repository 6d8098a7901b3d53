package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--format", format}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileText(t *testing.T) {
	out, err := runCommand(t, "text", "compile", "person",
		"--where", "name^=Jo", "--order", "name:desc,id", "--page", "2", "--limit", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "entity:  person (sqlite)")
	assert.Contains(t, out, "where:   CONCAT(first_name,' ',last_name) LIKE ?")
	assert.Contains(t, out, `params:  ["Jo%"]`)
	assert.Contains(t, out, "order:   CONCAT(first_name,' ',last_name) DESC, id ASC")
	assert.Contains(t, out, "offset:  10")
	assert.Contains(t, out, "limit:   10")
	assert.Contains(t, out, "LIMIT 10 OFFSET 10")
	assert.Contains(t, out, "count:   SELECT COUNT(*) FROM Persons WHERE")
}

func TestCompileJSONTree(t *testing.T) {
	owner := "4f1c2a9e-3b7d-4c2e-9a51-0d6e8f7b1c23"
	out, err := runCommand(t, "json", "compile", "contact", "--dialect", "postgres",
		"--where", `{"operator":"or","grouping":[{"condition":"owner==`+owner+`"},{"condition":"deleted_moment==null"}]}`)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "postgres", data["dialect"])
	assert.Equal(t, `(owner = (SELECT id FROM "Persons" WHERE public_id = ?) OR deleted_moment IS ?)`, data["where"])
	assert.Equal(t, []any{owner, nil}, data["params"])
	assert.Contains(t, data["select"], `public_id = $1) OR deleted_moment IS $2)`)
	assert.EqualValues(t, 20, data["limit"])
}

func TestCompileArrayOperator(t *testing.T) {
	out, err := runCommand(t, "json", "compile", "contacts_group",
		"--where", `["number>1","description*=work"]`, "--array-operator", "or")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "(number > ? OR description LIKE ?)", data["where"])
	assert.Equal(t, []any{"1", "%work%"}, data["params"])
}

func TestCompileRejected(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     string
		exitCode int
	}{
		{"malformed inline", []string{"person", "--where", "name=Jo"}, "E001", ExitFailure},
		{"malformed json", []string{"person", "--where", `{"operator":`}, "E001", ExitFailure},
		{"unknown group operator", []string{"person", "--where", `{"operator":"xor","grouping":["id==1"]}`}, "E002", ExitFailure},
		{"not filterable", []string{"person", "--where", "password==x"}, "E003", ExitFailure},
		{"not orderable", []string{"contact", "--order", "first_name"}, "E004", ExitFailure},
		{"bad date", []string{"person", "--where", "created_moment>=2021-13-01"}, "E005", ExitFailure},
		{"bad page", []string{"person", "--page", "0"}, "E006", ExitFailure},
		{"bad limit", []string{"person", "--limit", "-1"}, "E006", ExitFailure},
		{"reference operator", []string{"contact", "--where", "owner!=x"}, "E007", ExitFailure},
		{"bad reference", []string{"contact", "--where", "owner==x"}, "E008", ExitFailure},
		{"bad direction", []string{"person", "--order", "name:up"}, "E009", ExitFailure},
		{"unknown entity", []string{"invoice"}, ErrCodeGeneric, ExitCommandError},
		{"unknown dialect", []string{"person", "--dialect", "oracle"}, ErrCodeGeneric, ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, "json", append([]string{"compile"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestCompileRejectedFieldInText(t *testing.T) {
	out, err := runCommand(t, "text", "compile", "person", "--where", "password==x")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E003]: field cannot be filtered 'password'")
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCommand(t, "yaml", "compile", "person")
	assert.ErrorContains(t, err, "invalid format")
}
