package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	authapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/auth"
	courseapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/course"
	userapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/application/verification"
	authhttp "gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/auth"
	coursehttp "gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/middlewares"
	userhttp "gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/user"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/httpx"
)

type Port struct {
	auth       *authhttp.HTTP
	user       *userhttp.HTTP
	course     *coursehttp.HTTP
	errhandler *httpx.ErrorHandler
}

type Args struct {
	AuthApp      *authapp.App
	Verification *verification.App
	UserApp      *userapp.App
	CourseApp    *courseapp.App
	Middleware   *middlewares.Middleware
	Errhandler   *httpx.ErrorHandler
	Mode         env.Mode
	ImageBaseURL string
}

func NewPort(args Args) *Port {
	if args.Errhandler == nil {
		args.Errhandler = httpx.NewErrorHandler()
	}

	return &Port{
		errhandler: args.Errhandler,
		auth: authhttp.NewHTTP(authhttp.Args{
			App:          args.AuthApp,
			Verification: args.Verification,
			Middleware:   args.Middleware,
			Errhandler:   args.Errhandler,
			Mode:         args.Mode,
		}),
		user: userhttp.NewHTTP(userhttp.Args{
			UserApp:    args.UserApp,
			Middleware: args.Middleware,
			Errhandler: args.Errhandler,
		}),
		course: coursehttp.NewHTTP(coursehttp.Args{
			CourseApp:    args.CourseApp,
			Middleware:   args.Middleware,
			Errhandler:   args.Errhandler,
			ImageBaseURL: args.ImageBaseURL,
		}),
	}
}

func (p *Port) Route(r chi.Router) chi.Router {
	if r == nil {
		r = chi.NewRouter()
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.errhandler.HandleError(w, r, trace.SpanFromContext(r.Context()), errorx.NewNotFound(), "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		p.errhandler.HandleError(w, r, trace.SpanFromContext(r.Context()), errorx.NewMethodNotAllowed(), "method not allowed")
	})

	p.auth.Route(r)
	p.user.Route(r)
	p.course.Route(r)

	return r
}
