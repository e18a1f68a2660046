// Package mocks provides mock implementations of the ingestion ports for tests.
//
// This package uses go.uber.org/mock (gomock). The mocks are generated from internal/core and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	ledger := mocks.NewMockLedgerStore(ctrl)
//	ledger.EXPECT().IsProcessed(gomock.Any(), gomock.Any(), ref).Return(false, nil)
package mocks

// Generate mocks for every port in internal/core:
// Session, SessionOpener, CredentialSource, LedgerStore, TableMappingSource, TableResolver,
// BulkLoader, ObjectStore, MessageAcker, ProcessedCache, Ingestor, BatchDispatcher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=core_mock.go github.com/target/csv-ingestor/internal/core Session,SessionOpener,CredentialSource,LedgerStore,TableMappingSource,TableResolver,BulkLoader,ObjectStore,MessageAcker,ProcessedCache,Ingestor,BatchDispatcher
