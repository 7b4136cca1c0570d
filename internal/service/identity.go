package service

// CallerIdentity carries the authenticated caller into service operations so
// each operation stays computable from its explicit inputs rather than ambient
// session state.
type CallerIdentity struct {
	ID   uint
	Role string
}
