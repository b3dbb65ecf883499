package passport

import "errors"

// Chain function signatures. Each registered function is tried in registration
// order; returning ErrSkip hands the value to the next function.
type (
	// SerializeFunc reduces a user object to the value stored in the session.
	// Returning (nil, nil) also skips to the next serializer.
	SerializeFunc func(ctx *Context, user any) (any, error)

	// DeserializeFunc rebuilds a user object from its serialized session
	// form. Returning (nil, nil) terminates the chain with "no user": the
	// caller treats the session entry as stale rather than erroring.
	DeserializeFunc func(ctx *Context, serialized any) (any, error)

	// TransformFunc rewrites strategy-provided auth info before it is
	// exposed on the request. Returning (nil, nil) also skips.
	TransformFunc func(ctx *Context, info any) (any, error)
)

// RegisterSerializer appends fn to the serializer chain.
func (a *Authenticator) RegisterSerializer(fn SerializeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.serializers = append(a.serializers, fn)
}

// RegisterDeserializer appends fn to the deserializer chain.
func (a *Authenticator) RegisterDeserializer(fn DeserializeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deserializers = append(a.deserializers, fn)
}

// RegisterInfoTransformer appends fn to the auth info transformer chain.
func (a *Authenticator) RegisterInfoTransformer(fn TransformFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.infoTransformers = append(a.infoTransformers, fn)
}

// SerializeUser runs the serializer chain and returns the first concrete
// value produced. An exhausted chain (including an empty one) is an error:
// a user cannot be logged in if nothing knows how to persist it.
func (a *Authenticator) SerializeUser(ctx *Context, user any) (any, error) {
	a.mu.RLock()
	chain := a.serializers
	a.mu.RUnlock()

	for _, fn := range chain {
		value, err := fn(ctx, user)
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		return value, nil
	}
	return nil, ErrNoSerializer
}

// DeserializeUser runs the deserializer chain. A nil user with a nil error
// means the serialized reference no longer resolves (e.g. the account was
// deleted); callers drop the session entry instead of failing the request.
func (a *Authenticator) DeserializeUser(ctx *Context, serialized any) (any, error) {
	a.mu.RLock()
	chain := a.deserializers
	a.mu.RUnlock()

	for _, fn := range chain {
		user, err := fn(ctx, serialized)
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return user, nil
	}
	return nil, ErrNoDeserializer
}

// TransformAuthInfo runs the transformer chain. With no transformers (or when
// every transformer skips) the original info is passed through untouched.
func (a *Authenticator) TransformAuthInfo(ctx *Context, info any) (any, error) {
	a.mu.RLock()
	chain := a.infoTransformers
	a.mu.RUnlock()

	for _, fn := range chain {
		value, err := fn(ctx, info)
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		return value, nil
	}
	return info, nil
}
