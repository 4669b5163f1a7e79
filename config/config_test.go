package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	c := map[string]string{
		"PORT":             "9090",
		"BAD_INT":          "ten",
		"FLAG":             " true ",
		"WAIT_MS":          "1500",
		"ACCEPTED_ORIGINS": "https://a.example, ,https://b.example",
		"EMPTY":            "",
	}

	assert.Equal(t, "9090", GetString(c, "PORT", "8080"))
	assert.Equal(t, "fallback", GetString(c, "EMPTY", "fallback"))
	assert.Equal(t, "fallback", GetString(nil, "PORT", "fallback"))

	assert.Equal(t, 9090, GetInt(c, "PORT", 1))
	assert.Equal(t, 1, GetInt(c, "BAD_INT", 1))
	assert.Equal(t, 1, GetInt(c, "MISSING", 1))

	assert.True(t, GetBool(c, "FLAG", false))
	assert.True(t, GetBool(c, "BAD_INT", true))

	assert.Equal(t, 1500*time.Millisecond, GetMillis(c, "WAIT_MS", time.Second))
	assert.Equal(t, time.Second, GetMillis(c, "MISSING", time.Second))

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, GetList(c, "ACCEPTED_ORIGINS"))
	assert.Nil(t, GetList(c, "EMPTY"))
}

func TestIsDevelopment(t *testing.T) {
	assert.False(t, IsDevelopment(nil))
	assert.True(t, IsDevelopment(map[string]string{"ENVIRONMENT": "Development"}))
	assert.True(t, IsDevelopment(map[string]string{"ENVIRONMENT": "local"}))
	assert.False(t, IsDevelopment(map[string]string{"ENVIRONMENT": "staging"}))
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("PORTFOLIO_TEST_VALUE", "a=b")
	assert.Equal(t, "a=b", New()["PORTFOLIO_TEST_VALUE"])
}

// pagedStore serves parameters one page at a time.
type pagedStore struct {
	pages [][]types.Parameter
	calls int
	err   error
}

func (s *pagedStore) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	page := s.calls
	s.calls++
	out := &ssm.GetParametersByPathOutput{Parameters: s.pages[page]}
	if page+1 < len(s.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func param(name, value string) types.Parameter {
	return types.Parameter{Name: aws.String(name), Value: aws.String(value)}
}

func TestOverlaySSM(t *testing.T) {
	store := &pagedStore{pages: [][]types.Parameter{
		{param("/portfolio/prod/SUPABASE_JWT_SECRET", "jwt"), param("/portfolio/prod/PORT", "9999")},
		{param("/portfolio/prod/nested/SESSION_SECRET", "cookie")},
	}}
	c := map[string]string{"PORT": "8080"}

	loaded, err := OverlaySSM(context.Background(), store, c, "/portfolio/prod")
	require.NoError(t, err)

	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, "jwt", c["SUPABASE_JWT_SECRET"])
	assert.Equal(t, "cookie", c["SESSION_SECRET"])
	assert.Equal(t, "8080", c["PORT"], "environment wins over SSM")
}

func TestOverlaySSMWithoutPathIsNoop(t *testing.T) {
	store := &pagedStore{err: errors.New("should not be called")}
	loaded, err := OverlaySSM(context.Background(), store, map[string]string{}, "")
	require.NoError(t, err)
	assert.Zero(t, loaded)
}

func TestOverlaySSMReportsErrors(t *testing.T) {
	store := &pagedStore{err: errors.New("access denied")}
	_, err := OverlaySSM(context.Background(), store, map[string]string{}, "/portfolio/prod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
