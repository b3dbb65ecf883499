package passport

import "net/http"

// ResultKind discriminates the outcomes a strategy can produce for a request.
type ResultKind int

const (
	// KindPass means the strategy has no opinion; the next strategy (or the
	// downstream handler) gets its turn.
	KindPass ResultKind = iota
	// KindFail means the credentials were checked and rejected.
	KindFail
	// KindRedirect means the client must be sent elsewhere to continue
	// authenticating, e.g. to an authorization server.
	KindRedirect
	// KindSuccess means a user was authenticated.
	KindSuccess
)

// Result is the tagged outcome of one strategy attempt. Exactly the fields for
// the given Kind are meaningful; constructors set the conventional defaults.
type Result struct {
	Kind ResultKind

	// Fail
	Challenge any // typically a string challenge or an *Info message
	Status    int

	// Redirect
	URL string

	// Success
	User any
	Info any
}

// Info is the conventional shape for flash-style authentication messages.
type Info struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Pass reports that the strategy declines to authenticate this request.
func Pass() Result {
	return Result{Kind: KindPass}
}

// Fail reports rejected credentials. An empty status defaults to 401.
func Fail(challenge any, status int) Result {
	if status == 0 {
		status = http.StatusUnauthorized
	}
	return Result{Kind: KindFail, Challenge: challenge, Status: status}
}

// Redirect asks the framework to redirect the client. An empty status
// defaults to 302.
func Redirect(url string, status int) Result {
	if status == 0 {
		status = http.StatusFound
	}
	return Result{Kind: KindRedirect, URL: url, Status: status}
}

// Success reports an authenticated user with optional strategy-provided info.
func Success(user, info any) Result {
	return Result{Kind: KindSuccess, User: user, Info: info}
}
