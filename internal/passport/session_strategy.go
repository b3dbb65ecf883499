package passport

// SessionStrategy restores a previously logged-in user from the session. It
// never fails the request: an absent or stale session entry simply yields no
// user, leaving the verdict to downstream middleware.
type SessionStrategy struct{}

func (s *SessionStrategy) Name() string { return "session" }

func (s *SessionStrategy) Authenticate(ctx *Context, _ *Options) (Result, error) {
	if ctx.auth == nil {
		return Result{}, ErrMissingInitialize
	}

	serialized, present := ctx.sessionUser()
	if !present {
		return Pass(), nil
	}

	user, err := ctx.auth.DeserializeUser(ctx, serialized)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		// The serialized reference no longer resolves to an account; drop
		// it so the stale entry is not retried on every request.
		ctx.clearSessionUser()
		return Pass(), nil
	}

	ctx.State[ctx.auth.userProperty] = user
	return Pass(), nil
}
