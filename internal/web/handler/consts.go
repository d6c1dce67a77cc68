package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// IDPath addresses a single row by its numeric id.
	IDPath = "/:id"

	// ErrNilDepsFatalLogMsg is used if router or deps are nil.
	ErrNilDepsFatalLogMsg = "router or deps is nil"

	// MsgServerError is the body message of unexpected failures.
	MsgServerError = "Internal Server Error"
)
