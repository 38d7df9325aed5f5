package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/darkpan/internal/git"
)

// GitExecutor mocks git.GitExecutor.
type GitExecutor struct {
	mock.Mock
}

var _ git.GitExecutor = (*GitExecutor)(nil)

func NewGitExecutor(t testingT) *GitExecutor {
	m := &GitExecutor{}
	register(t, m)
	return m
}

func (m *GitExecutor) IsGitRepo() bool {
	return m.Called().Bool(0)
}

func (m *GitExecutor) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *GitExecutor) Add(ctx context.Context, paths ...string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *GitExecutor) Remove(ctx context.Context, paths ...string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *GitExecutor) HasStagedChanges(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *GitExecutor) Commit(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *GitExecutor) Tag(ctx context.Context, name, message string) error {
	return m.Called(ctx, name, message).Error(0)
}

func (m *GitExecutor) HeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
