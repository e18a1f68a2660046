//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` or run through `go run` and are not
// tracked in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - Generates the gomock doubles in internal/mocks
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (matches go.uber.org/mock in go.mod)
//   Docs: https://github.com/uber-go/mock
//
// golangci-lint - Lint runner honouring the nolint directives in this module
//   Install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@v1.64.8
//   Docs: https://golangci-lint.run
