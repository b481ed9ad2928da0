package model

// ProfessionID uniquely identifies a profession in the pool
type ProfessionID string

// ProfessionMode selects how professions are resolved before game start
type ProfessionMode string

const (
	// ProfessionModeAssigned gives every player the creator's pre-assigned profession
	ProfessionModeAssigned ProfessionMode = "assigned"
	// ProfessionModeRandom draws from the pool without replacement on join
	ProfessionModeRandom ProfessionMode = "random"
	// ProfessionModeChoice lets each player pick from the shared pool
	ProfessionModeChoice ProfessionMode = "choice"
)

// Profession is a gameplay role with starting income parameters
type Profession struct {
	ID       ProfessionID
	Name     string
	Salary   int64 // monthly income
	Expenses int64 // monthly expenses
	Savings  int64 // starting balance
}

// MonthlyCashflow is income minus expenses; the credit cap derives from it
func (p Profession) MonthlyCashflow() int64 {
	return p.Salary - p.Expenses
}

// DefaultProfessions returns the built-in profession pool
func DefaultProfessions() []Profession {
	return []Profession{
		{ID: "engineer", Name: "Engineer", Salary: 4900, Expenses: 2600, Savings: 400},
		{ID: "teacher", Name: "Teacher", Salary: 3300, Expenses: 2000, Savings: 400},
		{ID: "doctor", Name: "Doctor", Salary: 13200, Expenses: 7650, Savings: 3500},
		{ID: "lawyer", Name: "Lawyer", Salary: 7500, Expenses: 4350, Savings: 2000},
		{ID: "nurse", Name: "Nurse", Salary: 3100, Expenses: 2100, Savings: 500},
		{ID: "police-officer", Name: "Police Officer", Salary: 3000, Expenses: 1900, Savings: 500},
		{ID: "truck-driver", Name: "Truck Driver", Salary: 2500, Expenses: 1600, Savings: 800},
		{ID: "secretary", Name: "Secretary", Salary: 2500, Expenses: 1500, Savings: 400},
		{ID: "pilot", Name: "Airline Pilot", Salary: 9500, Expenses: 6100, Savings: 2500},
		{ID: "mechanic", Name: "Mechanic", Salary: 2000, Expenses: 1300, Savings: 700},
	}
}

// FindProfession returns the profession with the given ID from the pool,
// or nil if absent
func FindProfession(pool []Profession, id ProfessionID) *Profession {
	for i := range pool {
		if pool[i].ID == id {
			return &pool[i]
		}
	}
	return nil
}
