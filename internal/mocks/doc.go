// Package mocks provides testify mocks for the repository collaborators and
// the cache manager. Constructors register AssertExpectations on cleanup.
package mocks
