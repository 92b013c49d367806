// Package models contains the GORM persistence models behind the repositories.
// Domain types carry no ORM tags; each model converts to and from its domain
// type with ToDomain and FromDomain.
//
//   - payables.go: accounts, account groups, billings, payment history
//   - identity.go: users
package models
