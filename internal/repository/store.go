package repository

import "github.com/alexanderramin/effort/internal/db"

// Store bundles the entity repositories over one handle. Writes made
// through it are reported to the journal it was built with.
type Store struct {
	Groups          GroupRepo
	Employees       EmployeeRepo
	Projects        ProjectRepo
	BudgetLines     BudgetLineRepo
	AllocationLines AllocationLineRepo
	Efforts         EffortRepo
	Reports         ReportRepo
	Meta            MetaRepo
}

// NewStore creates tx-scoped repositories. A nil journal records nothing.
func NewStore(q db.DBTX, journal Journal) *Store {
	if journal == nil {
		journal = NopJournal{}
	}
	return &Store{
		Groups:          NewSQLiteGroupRepo(q, journal),
		Employees:       NewSQLiteEmployeeRepo(q, journal),
		Projects:        NewSQLiteProjectRepo(q, journal),
		BudgetLines:     NewSQLiteBudgetLineRepo(q, journal),
		AllocationLines: NewSQLiteAllocationLineRepo(q, journal),
		Efforts:         NewSQLiteEffortRepo(q, journal),
		Reports:         NewSQLiteReportRepo(q),
		Meta:            NewSQLiteMetaRepo(q),
	}
}
