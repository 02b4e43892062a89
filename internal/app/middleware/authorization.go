package middleware

import (
	"context"
	"errors"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
)

var ErrOperatorRequired = errors.New("middleware: operator credentials required")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

// OperatorScoped marks messages reserved for the operator console.
type OperatorScoped interface {
	OperatorOnly()
}

type operatorKey struct{}

// ContextWithOperator records the authenticated operator for downstream authorization.
func ContextWithOperator(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operatorKey{}, name)
}

func OperatorFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(operatorKey{}).(string)
	return name, ok && name != ""
}

// OperatorAuthorizer lets guest messages through and requires an operator for OperatorScoped ones.
type OperatorAuthorizer struct{}

func (OperatorAuthorizer) Authorize(ctx context.Context, message any) error {
	if _, scoped := message.(OperatorScoped); !scoped {
		return nil
	}
	if _, ok := OperatorFromContext(ctx); !ok {
		return ErrOperatorRequired
	}
	return nil
}
