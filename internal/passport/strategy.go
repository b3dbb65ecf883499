package passport

// Strategy authenticates one request using a particular mechanism. A strategy
// inspects the request carried by the Context and reports its verdict as a
// Result. Returned errors are protocol-level failures (misconfiguration,
// unreachable upstream) and abort the dispatch; rejected credentials are not
// errors and must be reported via Fail.
type Strategy interface {
	Name() string
	Authenticate(ctx *Context, opts *Options) (Result, error)
}
