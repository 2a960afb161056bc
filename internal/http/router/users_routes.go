package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/usersvc/internal/http/controllers/users"
)

// RegisterUsersRoutes registra el CRUD de usuarios bajo /users.
// Las rutas fijas (/active, /page, /count, /email/...) se registran antes que
// /{id}; chi prioriza segmentos estáticos igual.
func RegisterUsersRoutes(r chi.Router, c *ctrl.UsersController) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", c.ListUsers)
		r.Post("/", c.CreateUser)

		r.Get("/active", c.ListActiveUsers)
		r.Get("/page", c.ListUsersPage)
		r.Get("/count", c.CountUsers)
		r.Get("/email/{email}", c.GetUserByEmail)

		r.Get("/{id}", c.GetUser)
		r.Put("/{id}", c.UpdateUser)
		r.Delete("/{id}", c.DeleteUser)
	})
}
