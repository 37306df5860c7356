package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
)

func TestNewNotifier_RequiresTopic(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOPIC_ARN", "")
	t.Setenv("HYGIENE_RETENTION_TOPIC_ARN", "")

	_, err := newNotifier(context.Background())
	require.Error(t, err)
	assert.True(t, herrors.Is(err, herrors.ErrConfigInvalid))
}

func TestNewNotifier_UsesTopicFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOPIC_ARN", "arn:aws:sns:us-east-1:111122223333:retention")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	n, err := newNotifier(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, n)
}
