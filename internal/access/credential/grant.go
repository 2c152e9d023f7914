package credential

// GrantKind distinguishes how an entry gets (or doesn't get) a passcode at
// scheduling time.  A single tagged value replaces the overlapping boolean
// toggles a form would naturally produce, so an invalid combination (custom
// code with no code, auto with a code) cannot be represented.
type GrantKind int

const (
	// GrantNone schedules the entry without door access.
	GrantNone GrantKind = iota
	// GrantAuto mints a random passcode.
	GrantAuto
	// GrantCustom uses a caller-supplied passcode.
	GrantCustom
)

// AccessGrant is the scheduling-time access decision.  Code is meaningful
// only for GrantCustom.
type AccessGrant struct {
	Kind GrantKind
	Code string
}
