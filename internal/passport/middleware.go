package passport

import (
	"net/http"

	"vismooc/internal/session"
)

// Options steers a single Authenticate dispatch. The zero value gives the
// default behavior: establish a login session and fall through to the next
// handler on success, write a bare failure response on rejection.
type Options struct {
	// SuccessRedirect sends the client here after a successful login.
	SuccessRedirect string

	// SuccessReturnToOrRedirect behaves like SuccessRedirect, except a
	// "returnTo" URL captured in the session takes precedence and is
	// consumed.
	SuccessReturnToOrRedirect string

	// SuccessMessage appends the strategy's info message to the session
	// flash messages under the info's type.
	SuccessMessage bool

	// FailureRedirect sends the client here when every strategy rejects.
	FailureRedirect string

	// FailureMessage appends string challenges to the "failed" flash
	// messages before a failure redirect.
	FailureMessage bool

	// FailWithError raises an AuthenticationError through the error handler
	// instead of writing the failure response directly.
	FailWithError bool

	// AssignProperty stores the user under this request state key and skips
	// session login entirely.
	AssignProperty string

	// SkipAuthInfo suppresses the auth info transformation that otherwise
	// runs after login.
	SkipAuthInfo bool

	// Callback takes over result handling completely: the middleware
	// neither logs the user in nor writes a response. With one strategy the
	// challenge and status arrive as scalars; with several, as slices
	// ordered like the strategy list.
	Callback Callback

	// Strategy hints, interpreted by individual strategies.
	Scope       []string
	State       string
	CallbackURL string
}

// Callback receives the outcome of a dispatch when set on Options. Exactly
// one of err, user, or challenge is meaningful: protocol errors carry err,
// success carries user (with optional info), and rejection carries the
// challenge and status aggregates with a nil user.
type Callback func(ctx *Context, err error, user, challenge any, status any)

// Initialize binds the Authenticator to each request. It must run after the
// session middleware and before Session or Authenticate.
func (a *Authenticator) Initialize() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil {
				a.errorHandler(w, r, ErrSessionRequired)
				return
			}
			pc := &Context{
				Writer:     w,
				Session:    sess,
				State:      make(map[string]any),
				TrustProxy: a.trustProxy,
				auth:       a,
			}
			r = pc.Install(r)
			pc.Request = r
			next.ServeHTTP(w, r)
		})
	}
}

// Session restores the logged-in user from the session. Shorthand for
// authenticating with the built-in session strategy.
func (a *Authenticator) Session() func(http.Handler) http.Handler {
	return a.Authenticate([]string{"session"}, nil)
}

// Authenticate dispatches the named strategies in order against each request.
// The first Success or Redirect verdict wins; Fail verdicts accumulate and
// only take effect once every strategy has had its turn.
func (a *Authenticator) Authenticate(names []string, opts *Options) func(http.Handler) http.Handler {
	if opts == nil {
		opts = &Options{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pc := FromRequest(r)
			if pc == nil {
				pc = &Context{
					Session:    session.FromContext(r.Context()),
					State:      make(map[string]any),
					TrustProxy: a.trustProxy,
				}
				r = pc.Install(r)
			}
			pc.Request = r
			pc.Writer = w

			var challenges []any
			var statuses []int

			for _, name := range names {
				strat, err := a.strategy(name)
				if err != nil {
					// Configuration error, not an authentication verdict;
					// bypasses any callback.
					a.errorHandler(w, r, err)
					return
				}

				res, err := strat.Authenticate(pc, opts)
				if err != nil {
					if opts.Callback != nil {
						opts.Callback(pc, err, nil, nil, nil)
						return
					}
					a.errorHandler(w, r, err)
					return
				}

				switch res.Kind {
				case KindPass:
					continue
				case KindFail:
					// Strategies may build Result literally and leave the
					// status unset; the constructor defaults apply here too.
					status := res.Status
					if status == 0 {
						status = http.StatusUnauthorized
					}
					challenges = append(challenges, res.Challenge)
					statuses = append(statuses, status)
				case KindRedirect:
					status := res.Status
					if status == 0 {
						status = http.StatusFound
					}
					w.Header().Set("Location", res.URL)
					w.WriteHeader(status)
					return
				case KindSuccess:
					a.succeed(pc, next, opts, res)
					return
				}
			}

			if len(challenges) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			a.fail(pc, opts, len(names), challenges, statuses)
		})
	}
}

func (a *Authenticator) succeed(pc *Context, next http.Handler, opts *Options, res Result) {
	user, info := res.User, res.Info

	if opts.Callback != nil {
		opts.Callback(pc, nil, user, info, nil)
		return
	}

	if opts.SuccessMessage {
		if im, ok := asInfo(info); ok && im.Message != "" {
			msgType := im.Type
			if msgType == "" {
				msgType = "success"
			}
			addFlash(pc.Session, msgType, im.Message)
		}
	}

	if opts.AssignProperty != "" {
		pc.State[opts.AssignProperty] = user
		next.ServeHTTP(pc.Writer, pc.Request)
		return
	}

	if err := pc.Login(user); err != nil {
		a.errorHandler(pc.Writer, pc.Request, err)
		return
	}

	if !opts.SkipAuthInfo {
		transformed, err := a.TransformAuthInfo(pc, info)
		if err != nil {
			a.errorHandler(pc.Writer, pc.Request, err)
			return
		}
		if transformed != nil {
			pc.State["authInfo"] = transformed
		}
	}

	if opts.SuccessReturnToOrRedirect != "" {
		url := opts.SuccessReturnToOrRedirect
		if pc.Session != nil {
			if returnTo, ok := pc.Session.Get("returnTo").(string); ok && returnTo != "" {
				url = returnTo
				pc.Session.Delete("returnTo")
			}
		}
		http.Redirect(pc.Writer, pc.Request, url, http.StatusFound)
		return
	}
	if opts.SuccessRedirect != "" {
		http.Redirect(pc.Writer, pc.Request, opts.SuccessRedirect, http.StatusFound)
		return
	}
	next.ServeHTTP(pc.Writer, pc.Request)
}

func (a *Authenticator) fail(pc *Context, opts *Options, tried int, challenges []any, statuses []int) {
	if opts.Callback != nil {
		if tried == 1 {
			opts.Callback(pc, nil, nil, challenges[0], statuses[0])
		} else {
			opts.Callback(pc, nil, nil, challenges, statuses)
		}
		return
	}

	if opts.FailureRedirect != "" {
		if opts.FailureMessage && pc.Session != nil {
			for _, ch := range challenges {
				if msg, ok := ch.(string); ok && msg != "" {
					addFlash(pc.Session, "failed", msg)
				}
			}
		}
		http.Redirect(pc.Writer, pc.Request, opts.FailureRedirect, http.StatusFound)
		return
	}

	status := statuses[0]

	if opts.FailWithError {
		a.errorHandler(pc.Writer, pc.Request, &AuthenticationError{Status: status})
		return
	}

	for _, ch := range challenges {
		if c, ok := ch.(string); ok && c != "" {
			pc.Writer.Header().Add("WWW-Authenticate", c)
		}
	}
	http.Error(pc.Writer, http.StatusText(status), status)
}

// addFlash appends msg to the session's flash message list for msgType.
func addFlash(sess *session.Session, msgType, msg string) {
	if sess == nil {
		return
	}
	messages := sess.Map("message")
	if messages == nil {
		messages = make(map[string]any)
	}
	list, _ := messages[msgType].([]any)
	messages[msgType] = append(list, msg)
	sess.Set("message", messages)
}

func asInfo(info any) (Info, bool) {
	switch v := info.(type) {
	case Info:
		return v, true
	case *Info:
		if v == nil {
			return Info{}, false
		}
		return *v, true
	case map[string]any:
		im := Info{}
		im.Type, _ = v["type"].(string)
		im.Message, _ = v["message"].(string)
		return im, im.Message != ""
	default:
		return Info{}, false
	}
}
