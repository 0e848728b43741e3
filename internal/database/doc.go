// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations, role seeding
//	├── users/           # Users, roles and role checks
//	├── catalog/         # Sections and ebooks, including cascading deletes
//	├── loans/           # Loan requests and the cached per-user loan count
//	├── feedback/        # Ebook feedback
//	├── stats/           # Aggregate counters for dashboards and reports
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	usersRepo := users.NewRepository(db.DB)
//	catalogRepo := catalog.NewRepository(db.DB)
//
//	section, err := catalogRepo.GetSection(1)
//
// Repositories that take part in multi-step mutations are built on the
// transaction handle instead:
//
//	db.DB.Transaction(func(tx *gorm.DB) error {
//		repo := loans.NewRepository(tx)
//		...
//	})
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register new entities in Models()
package database
