package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/attestra/formtrail/internal/auth"
	"github.com/attestra/formtrail/internal/handler"
	mw "github.com/attestra/formtrail/internal/middleware"
)

func New(
	jwtSecret string,
	authH *handler.AuthHandler,
	projectH *handler.ProjectHandler,
	formH *handler.FormHandler,
	subH *handler.SubmissionHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/register", authH.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			// Auth
			r.Get("/auth/me", authH.Me)

			// Projects
			r.Get("/projects", projectH.List)
			r.Post("/projects", projectH.Create)
			r.Get("/projects/{projectId}", projectH.Get)
			r.Put("/projects/{projectId}", projectH.Update)
			r.Delete("/projects/{projectId}", projectH.Delete)

			// Forms
			r.Get("/forms", formH.List)
			r.Post("/forms", formH.Create)
			r.Get("/forms/{formId}", formH.Get)
			r.Put("/forms/{formId}", formH.Update)
			r.Delete("/forms/{formId}", formH.Delete)

			// Form revisions
			r.Get("/forms/{formId}/v", formH.ListRevisions)
			r.Get("/forms/{formId}/v/{version}", formH.GetRevision)
			r.Put("/forms/{formId}/v/draft", formH.SaveDraft)
			r.Post("/forms/{formId}/v/draft/publish", formH.PublishDraft)

			// Submissions
			r.Get("/forms/{formId}/submissions", subH.List)
			r.Post("/forms/{formId}/submissions", subH.Create)
			r.Get("/forms/{formId}/submissions/{subId}", subH.Get)
			r.Put("/forms/{formId}/submissions/{subId}", subH.Update)
			r.Delete("/forms/{formId}/submissions/{subId}", subH.Delete)

			// Submission revisions and signatures
			r.Get("/forms/{formId}/submissions/{subId}/v", subH.Revisions)
			r.Get("/forms/{formId}/submissions/{subId}/v/{version}", subH.GetRevision)
			r.Post("/forms/{formId}/submissions/{subId}/sign", subH.Sign)
			r.Get("/forms/{formId}/submissions/{subId}/signatures", subH.Signatures)
		})
	})

	return r
}
