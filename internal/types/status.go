package types

// Entity lifecycle flags. Rows are never physically removed; retiring a row
// flips Status to StatusRetired and every active-state query filters on
// StatusActive.
const (
	StatusRetired int16 = 0
	StatusActive  int16 = 1
)
