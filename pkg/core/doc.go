// Package core defines the shared language of the query console.
//
// This package contains:
//   - Catalog entities (PersistenceUnit, ManagedEntity, NamedQuery)
//   - The query contract (QueryRequest, DataSet, Record)
//   - Service interfaces (Adapter, Store)
//   - Configuration types (DatasourceConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
