package specification

import "gorm.io/gorm"

// Specification narrows a query. Implementations are small value types so
// call sites read like predicates.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
