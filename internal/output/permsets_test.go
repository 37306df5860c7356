package output_test

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/output"
)

func grants() []models.PermissionSetFinding {
	return []models.PermissionSetFinding{
		{PermissionSet: "AdministratorAccess", Action: "iam:*", Effect: "Allow", Resources: []string{"*"}},
		{PermissionSet: "DataEng", Action: "s3:*", Effect: "Deny", Resources: []string{"arn:aws:s3:::a", "arn:aws:s3:::a/*"}},
	}
}

func TestWritePermissionSetCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.WritePermissionSetCSV(&buf, grants()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"PermissionSet", "Action", "Effect", "Resources"},
		{"AdministratorAccess", "iam:*", "Allow", "*"},
		{"DataEng", "s3:*", "Deny", "arn:aws:s3:::a;arn:aws:s3:::a/*"},
	}, records)
}

func TestWriteFile_PermissionSets(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	name := output.PermissionSetFileName(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	path, err := output.WriteFile(dir, name, func(w io.Writer) error {
		return output.WritePermissionSetCSV(w, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "permission_set_wildcards_2024-05-01.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PermissionSet,Action,Effect,Resources\n", string(data))
}

func TestRenderPermissionSets(t *testing.T) {
	var buf bytes.Buffer
	output.RenderPermissionSets(&buf, grants())
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "PERMISSION SET"))
	assert.Equal(t, len(lines[0]), len(lines[1]))
	assert.Contains(t, lines[3], "arn:aws:s3:::a;arn:aws:s3:::a/*")
	assert.Equal(t, "2 over-broad grant(s)", lines[5])
}

func TestRenderPermissionSets_None(t *testing.T) {
	var buf bytes.Buffer
	output.RenderPermissionSets(&buf, nil)
	assert.Equal(t, "No permission set grants s3:* or iam:*.\n", buf.String())
}
