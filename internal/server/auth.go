package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"pl-predictions/internal/domain"
	"pl-predictions/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type userKey struct{}

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// NewAuthInterceptor authenticates calls to the protected procedures and
// stores the user in the context.
func NewAuthInterceptor(auth *service.AuthService, protected map[string]bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !protected[req.Spec().Procedure] {
				return next(ctx, req)
			}

			token, ok := bearerToken(req.Header().Get("Authorization"))
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("access denied"))
			}
			user, err := auth.Authenticate(ctx, token)
			if err != nil {
				return nil, toConnectError(ctx, err)
			}

			ctx = zerolog.Ctx(ctx).With().Int64("user_id", user.ID).Logger().WithContext(ctx)
			return next(withUser(ctx, user), req)
		}
	}
}

func checkAdminToken(expected, got string) error {
	if expected == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return connect.NewError(connect.CodePermissionDenied, errors.New("admin token required"))
	}
	return nil
}

// toConnectError maps domain errors to RPC codes. Anything unrecognized is
// logged and reported without detail.
func toConnectError(ctx context.Context, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, domain.ErrUsernameTaken):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, domain.ErrDeadlinePassed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, domain.ErrUnknownMatch), errors.Is(err, domain.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
